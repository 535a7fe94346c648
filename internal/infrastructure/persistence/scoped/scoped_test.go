package scoped

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type note struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;index"`
	Title     string
	Amount    decimal.Decimal `gorm:"type:decimal(18,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tags      []tag
}

func (n *note) GetID() uuid.UUID         { return n.ID }
func (n *note) SetID(id uuid.UUID)       { n.ID = id }
func (n *note) SetOwner(owner uuid.UUID) { n.OwnerID = owner }

type tag struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;index"`
	NoteID  uuid.UUID `gorm:"type:uuid"`
	Label   string
}

func (t *tag) GetID() uuid.UUID         { return t.ID }
func (t *tag) SetID(id uuid.UUID)       { t.ID = id }
func (t *tag) SetOwner(owner uuid.UUID) { t.OwnerID = owner }

type env struct {
	db     *gorm.DB
	notes  *Repository[note]
	engine *Engine[note]
	alice  context.Context
	bob    context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&note{}, &tag{}))
	require.NoError(t, RegisterGuard(db))

	engine, err := NewEngine[note](db, NewOwnerStrategy(db))
	require.NoError(t, err)

	return &env{
		db:     db,
		notes:  NewRepository(engine),
		engine: engine,
		alice:  reqctx.WithPrincipal(context.Background(), uuid.New()),
		bob:    reqctx.WithPrincipal(context.Background(), uuid.New()),
	}
}

func (e *env) save(t *testing.T, ctx context.Context, title string, amount int64) *note {
	t.Helper()
	n := &note{Title: title, Amount: decimal.NewFromInt(amount)}
	require.NoError(t, e.notes.Save(ctx, n))
	return n
}

func TestEngine_OwnerSeesOnlyOwnRecords(t *testing.T) {
	e := newEnv(t)

	n := &note{Title: "rent", OwnerID: uuid.New()}
	require.NoError(t, e.notes.Save(e.alice, n))
	alice, _ := reqctx.Principal(e.alice)
	assert.Equal(t, alice, n.OwnerID, "owner comes from the caller, not the record")
	assert.NotEqual(t, uuid.Nil, n.ID)

	got, err := e.engine.FindAll(e.bob, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.engine.FindAll(e.alice, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rent", got[0].Title)
}

func TestEngine_ForeignIDBehavesLikeMissingID(t *testing.T) {
	e := newEnv(t)
	foreign := e.save(t, e.alice, "alice's", 10)
	missing := uuid.New()

	for _, id := range []uuid.UUID{foreign.ID, missing} {
		_, err := e.notes.FindByID(e.bob, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		exists, err := e.notes.ExistsByID(e.bob, id)
		require.NoError(t, err)
		assert.False(t, exists)

		n, err := e.engine.Count(e.bob, query.ID(id))
		require.NoError(t, err)
		assert.Zero(t, n)

		sum, err := e.engine.Sum(e.bob, "amount", query.ID(id))
		require.NoError(t, err)
		assert.True(t, sum.IsZero())

		assert.ErrorIs(t, e.notes.DeleteByID(e.bob, id), shared.ErrNotFound)

		upd := &note{ID: id, Title: "hijacked"}
		assert.ErrorIs(t, e.notes.Save(e.bob, upd), shared.ErrNotFound)
	}

	still, err := e.notes.FindByID(e.alice, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's", still.Title)
}

func TestEngine_FailsClosedWithoutPrincipal(t *testing.T) {
	e := newEnv(t)
	e.save(t, e.alice, "x", 1)
	anon := context.Background()

	_, err := e.engine.FindAll(anon, nil)
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = e.engine.FindPage(anon, nil, query.Page{})
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = e.engine.Count(anon, nil)
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = e.engine.Sum(anon, "amount", nil)
	assert.ErrorIs(t, err, ErrOwnerRequired)
	_, err = e.engine.Delete(anon, nil)
	assert.ErrorIs(t, err, ErrOwnerRequired)
	assert.ErrorIs(t, e.notes.Save(anon, &note{Title: "y"}), ErrOwnerRequired)
	assert.True(t, IsIsolationError(err))

	var total int64
	require.NoError(t, Bypass(e.db).Model(&note{}).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestEngine_FindPage(t *testing.T) {
	e := newEnv(t)
	for _, title := range []string{"a1", "a2", "a3", "b1", "a4"} {
		e.save(t, e.alice, title, 1)
	}
	e.save(t, e.bob, "a5", 1)

	filter := query.Contains{Field: "title", Value: "a"}
	page, err := e.engine.FindPage(e.alice, filter, query.Page{Number: 2, Size: 3}, query.Asc("title"))
	require.NoError(t, err)

	assert.Equal(t, int64(4), page.Total, "total uses the same effective filter as the content")
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a4", page.Items[0].Title)

	empty, err := e.engine.FindPage(e.bob, query.Eq{Field: "title", Value: "zzz"}, query.Page{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Total)

	list, err := e.notes.List(e.alice, query.Page{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), list.Total)
	assert.Len(t, list.Items, 2)
}

func TestEngine_Sum(t *testing.T) {
	e := newEnv(t)
	e.save(t, e.alice, "a", 10)
	e.save(t, e.alice, "b", 20)
	e.save(t, e.bob, "c", 500)

	sum, err := e.engine.Sum(e.alice, "amount", nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(sum), sum.String())

	sum, err = e.engine.Sum(e.alice, "amount", query.Eq{Field: "title", Value: "none"})
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "sum over no rows is zero")

	_, err = e.engine.Sum(e.alice, "amount; DROP TABLE notes", nil)
	assert.ErrorIs(t, err, query.ErrUnknownField)
}

func TestEngine_DeleteOnlyOwn(t *testing.T) {
	e := newEnv(t)
	e.save(t, e.alice, "a", 1)
	e.save(t, e.alice, "b", 1)
	e.save(t, e.bob, "c", 1)

	n, err := e.engine.Delete(e.alice, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := e.engine.Count(e.bob, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestEngine_UpdateKeepsOwner(t *testing.T) {
	e := newEnv(t)
	n := e.save(t, e.alice, "old", 1)
	alice := n.OwnerID

	n.Title = "new"
	n.OwnerID = uuid.New()
	require.NoError(t, e.notes.Save(e.alice, n))

	got, err := e.notes.FindByID(e.alice, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, alice, got.OwnerID)
}

func TestEngine_TxIsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	kept := e.save(t, e.alice, "kept", 10)
	boom := errors.New("boom")

	err := e.engine.Tx(e.alice, func(ctx context.Context) error {
		if _, err := e.engine.Delete(ctx, query.ID(kept.ID)); err != nil {
			return err
		}
		if err := e.notes.Save(ctx, &note{Title: "new"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := e.engine.FindAll(e.alice, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)

	err = e.engine.Tx(e.alice, func(ctx context.Context) error {
		if _, err := e.engine.Delete(ctx, query.ID(kept.ID)); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return e.engine.Tx(ctx, func(ctx context.Context) error {
			return e.notes.Save(ctx, &note{Title: "new"})
		})
	})
	require.NoError(t, err)

	got, err = e.engine.FindAll(e.alice, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Title)

	t.Run("fails closed without principal", func(t *testing.T) {
		called := false
		err := e.engine.Tx(context.Background(), func(context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrOwnerRequired)
		assert.False(t, called)
	})
}

func TestEngine_JoinRespectsOwnership(t *testing.T) {
	e := newEnv(t)
	tags, err := NewEngine[tag](e.db, NewOwnerStrategy(e.db))
	require.NoError(t, err)

	mine := e.save(t, e.alice, "mine", 1)
	require.NoError(t, tags.Create(e.alice, &tag{NoteID: mine.ID, Label: "urgent"}))
	// a tag bob attached to alice's note must not make it match for alice
	other := e.save(t, e.alice, "other", 1)
	require.NoError(t, tags.Create(e.bob, &tag{NoteID: other.ID, Label: "urgent"}))

	got, err := e.engine.FindAll(e.alice, query.JoinEq{Association: "Tags", Field: "label", Value: "urgent"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Title)
}

func TestGuard_RejectsUnscopedStatements(t *testing.T) {
	e := newEnv(t)
	e.save(t, e.alice, "a", 1)

	var notes []note
	err := e.db.WithContext(e.alice).Find(&notes).Error
	assert.ErrorIs(t, err, ErrUnscopedStatement)
	assert.Empty(t, notes)

	err = e.db.Where("1 = 1").Delete(&note{}).Error
	assert.ErrorIs(t, err, ErrUnscopedStatement)

	err = e.db.Model(&note{}).Where("1 = 1").Update("title", "x").Error
	assert.ErrorIs(t, err, ErrUnscopedStatement)

	require.NoError(t, Bypass(e.db).Find(&notes).Error)
	assert.Len(t, notes, 1)
}

func TestNewEngine_RejectsUnownedTypes(t *testing.T) {
	e := newEnv(t)

	type plain struct {
		ID uuid.UUID
	}
	_, err := NewEngine[plain](e.db, NewOwnerStrategy(e.db))
	assert.Error(t, err)
}

func TestEngine_ConcurrentPrincipalsDoNotLeak(t *testing.T) {
	e := newEnv(t)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := reqctx.WithPrincipal(context.Background(), uuid.New())
			if err := e.notes.Save(ctx, &note{Title: "mine"}); err != nil {
				errs <- err
				return
			}
			n, err := e.engine.Count(ctx, nil)
			if err != nil {
				errs <- err
				return
			}
			if n != 1 {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

type recordingRouter struct {
	db      *gorm.DB
	mu      sync.Mutex
	tenants []string
	control int
}

func (r *recordingRouter) Conn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tenant, _ := reqctx.Tenant(ctx)
	r.mu.Lock()
	r.tenants = append(r.tenants, tenant)
	r.mu.Unlock()
	return fn(r.db.WithContext(ctx))
}

func (r *recordingRouter) Control(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	r.control++
	r.mu.Unlock()
	return fn(r.db.WithContext(ctx))
}

func TestSchemaStrategy(t *testing.T) {
	e := newEnv(t)
	router := &recordingRouter{db: e.db}
	strategy, err := New("schema", e.db, router)
	require.NoError(t, err)
	assert.Equal(t, "schema", strategy.Mode())

	engine, err := NewEngine[note](e.db, strategy)
	require.NoError(t, err)

	principal := uuid.New()
	ctx := reqctx.WithTenant(reqctx.WithPrincipal(context.Background(), principal), "group_a")

	pred, err := strategy.Predicate(ctx)
	require.NoError(t, err)
	assert.Nil(t, pred, "routed connections need no row filter")

	rec := &note{Title: "t"}
	require.NoError(t, engine.Create(ctx, rec))
	assert.Equal(t, principal, rec.OwnerID)

	n, err := engine.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"group_a", "group_a"}, router.tenants)

	noTenant := reqctx.WithPrincipal(context.Background(), principal)
	_, err = engine.Count(noTenant, nil)
	assert.ErrorIs(t, err, ErrTenantRequired)
	assert.ErrorIs(t, engine.Create(noTenant, &note{}), ErrTenantRequired)
	assert.Len(t, router.tenants, 2, "no connection is routed without a tenant")

	require.NoError(t, strategy.Control(noTenant, func(*gorm.DB) error { return nil }))
	assert.Equal(t, 1, router.control)
}

func TestNew(t *testing.T) {
	e := newEnv(t)

	s, err := New("owner", e.db, nil)
	require.NoError(t, err)
	assert.Equal(t, "owner", s.Mode())

	_, err = New("schema", e.db, nil)
	assert.Error(t, err)

	_, err = New("hybrid", e.db, nil)
	assert.Error(t, err)
}
