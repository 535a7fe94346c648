package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type shelf struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid"`
	Label   string
}

type widget struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID  `gorm:"type:uuid"`
	Name      string
	MadeOn    time.Time
	ShelfID   *uuid.UUID `gorm:"type:uuid"`
	Shelf     *shelf
	Parts     []part
	Retired   bool
}

type part struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID  uuid.UUID `gorm:"type:uuid"`
	WidgetID uuid.UUID `gorm:"type:uuid"`
	Serial   string
}

type fixture struct {
	db       *gorm.DB
	owner    uuid.UUID
	other    uuid.UUID
	shelfA   uuid.UUID
	alpha    uuid.UUID
	beta     uuid.UUID
	gamma    uuid.UUID
	compiler *Compiler
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&shelf{}, &widget{}, &part{}))

	f := &fixture{db: db, owner: uuid.New(), other: uuid.New(), shelfA: uuid.New()}
	f.alpha, f.beta, f.gamma = uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, db.Create(&shelf{ID: f.shelfA, OwnerID: f.owner, Label: "top"}).Error)
	require.NoError(t, db.Create([]widget{
		{ID: f.alpha, OwnerID: f.owner, Name: "Alpha 50%", MadeOn: day(1), ShelfID: &f.shelfA},
		{ID: f.beta, OwnerID: f.owner, Name: "beta", MadeOn: day(10)},
		{ID: f.gamma, OwnerID: f.other, Name: "Gamma", MadeOn: day(20), Retired: true},
	}).Error)
	require.NoError(t, db.Create([]part{
		{ID: uuid.New(), OwnerID: f.owner, WidgetID: f.beta, Serial: "S-1"},
		{ID: uuid.New(), OwnerID: f.other, WidgetID: f.gamma, Serial: "S-1"},
	}).Error)

	sch, err := SchemaOf(db, &widget{})
	require.NoError(t, err)
	f.compiler = NewCompiler(db, sch)
	return f
}

func (f *fixture) find(t *testing.T, c *Compiler, e Expr) []string {
	t.Helper()
	where, err := c.Where(e)
	require.NoError(t, err)

	tx := f.db.Model(&widget{})
	if where != nil {
		tx = tx.Clauses(clause.Where{Exprs: []clause.Expression{where}})
	}
	var rows []widget
	require.NoError(t, tx.Order("made_on").Find(&rows).Error)

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names
}

func TestCompiler_Leaves(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		expr Expr
		want []string
	}{
		{"nil matches all", nil, []string{"Alpha 50%", "beta", "Gamma"}},
		{"eq", Eq{Field: "name", Value: "beta"}, []string{"beta"}},
		{"eq by go field name", Eq{Field: "OwnerID", Value: f.other}, []string{"Gamma"}},
		{"between inclusive", Between{Field: "made_on", From: day(1), To: day(10)}, []string{"Alpha 50%", "beta"}},
		{"is null", IsNull{Field: "shelf_id"}, []string{"beta", "Gamma"}},
		{"contains ignores case", Contains{Field: "name", Value: "GAM"}, []string{"Gamma"}},
		{"contains escapes wildcards", Contains{Field: "name", Value: "50%"}, []string{"Alpha 50%"}},
		{"contains wildcard literal", Contains{Field: "name", Value: "%"}, []string{"Alpha 50%"}},
		{"id", ID(f.beta), []string{"beta"}},
		{"bool", Eq{Field: "retired", Value: true}, []string{"Gamma"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.find(t, f.compiler, tt.expr))
		})
	}
}

func TestCompiler_Composites(t *testing.T) {
	f := setup(t)

	t.Run("and", func(t *testing.T) {
		got := f.find(t, f.compiler, And{Eq{Field: "owner_id", Value: f.owner}, Contains{Field: "name", Value: "a"}})
		assert.Equal(t, []string{"Alpha 50%", "beta"}, got)
	})

	t.Run("or combined with and keeps precedence", func(t *testing.T) {
		got := f.find(t, f.compiler, And{
			Or{Eq{Field: "name", Value: "beta"}, Eq{Field: "name", Value: "Gamma"}},
			Eq{Field: "owner_id", Value: f.owner},
		})
		assert.Equal(t, []string{"beta"}, got)
	})

	t.Run("empty and matches all", func(t *testing.T) {
		assert.Len(t, f.find(t, f.compiler, And{}), 3)
	})

	t.Run("empty or matches nothing", func(t *testing.T) {
		assert.Empty(t, f.find(t, f.compiler, Or{}))
	})

	t.Run("or with match-all child matches all", func(t *testing.T) {
		assert.Len(t, f.find(t, f.compiler, Or{And{}, Eq{Field: "name", Value: "beta"}}), 3)
	})
}

func TestCompiler_Joins(t *testing.T) {
	f := setup(t)

	t.Run("belongs to", func(t *testing.T) {
		got := f.find(t, f.compiler, JoinEq{Association: "Shelf", Field: "label", Value: "top"})
		assert.Equal(t, []string{"Alpha 50%"}, got)
	})

	t.Run("has many", func(t *testing.T) {
		got := f.find(t, f.compiler, JoinEq{Association: "Parts", Field: "serial", Value: "S-1"})
		assert.Equal(t, []string{"beta", "Gamma"}, got)
	})

	t.Run("guard restricts related rows", func(t *testing.T) {
		guarded := f.compiler.WithGuard(Eq{Field: "owner_id", Value: f.owner})
		got := f.find(t, guarded, Join{Association: "Parts", Where: Eq{Field: "serial", Value: "S-1"}})
		assert.Equal(t, []string{"beta"}, got)
	})
}

func TestCompiler_Errors(t *testing.T) {
	f := setup(t)

	_, err := f.compiler.Where(Eq{Field: "name; DROP TABLE widgets", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = f.compiler.Where(JoinEq{Association: "Nope", Field: "id", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownAssociation)

	_, err = f.compiler.Where(JoinEq{Association: "Parts", Field: "missing", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = f.compiler.Order([]OrderBy{Desc("made_on DESC, 1")})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCompiler_Order(t *testing.T) {
	f := setup(t)

	order, err := f.compiler.Order([]OrderBy{Desc("made_on")})
	require.NoError(t, err)

	var rows []widget
	require.NoError(t, f.db.Model(&widget{}).Clauses(order).Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, "Gamma", rows[0].Name)
}

func TestAll(t *testing.T) {
	assert.Nil(t, All())
	assert.Nil(t, All(nil, nil))

	eq := Eq{Field: "a", Value: 1}
	assert.Equal(t, eq, All(nil, eq))
	assert.Equal(t, And{eq, eq}, All(eq, nil, eq))
}

func TestPage(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, Page{Number: 1, Size: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p = Page{Number: 3, Size: 500}.Normalize()
	assert.Equal(t, MaxPageSize, p.Size)
	assert.Equal(t, 200, p.Offset())
}
