package query

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Compilation errors
var (
	ErrUnknownField       = errors.New("unknown filter field")
	ErrUnknownAssociation = errors.New("unknown association")
	ErrUnsupportedExpr    = errors.New("unsupported filter expression")
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SchemaOf parses the GORM schema of model using db's naming strategy and cache.
func SchemaOf(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	return stmt.Schema, nil
}

// Compiler turns filter trees into GORM clauses for one model schema.
type Compiler struct {
	db     *gorm.DB
	schema *schema.Schema
	table  string
	guard  Expr
}

// NewCompiler returns a compiler for sch. db is used to build subqueries for
// Join nodes and is never executed directly.
func NewCompiler(db *gorm.DB, sch *schema.Schema) *Compiler {
	return &Compiler{db: db, schema: sch, table: clause.CurrentTable}
}

// WithGuard returns a compiler that also applies guard to every related table
// reached through a Join, so association filters cannot observe rows the
// caller does not own.
func (c *Compiler) WithGuard(guard Expr) *Compiler {
	clone := *c
	clone.guard = guard
	return &clone
}

// Column resolves a field name (Go name or column name) into a column.
func (c *Compiler) Column(field string) (clause.Column, error) {
	f := c.schema.LookUpField(field)
	if f == nil || f.DBName == "" {
		return clause.Column{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.schema.Name, field)
	}
	return clause.Column{Table: c.table, Name: f.DBName}, nil
}

// Where compiles e. It returns nil when e matches every row.
func (c *Compiler) Where(e Expr) (clause.Expression, error) {
	switch n := e.(type) {
	case nil:
		return nil, nil

	case Eq:
		col, err := c.Column(n.Field)
		if err != nil {
			return nil, err
		}
		return clause.Eq{Column: col, Value: n.Value}, nil

	case Between:
		col, err := c.Column(n.Field)
		if err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "? BETWEEN ? AND ?", Vars: []any{col, n.From, n.To}}, nil

	case IsNull:
		col, err := c.Column(n.Field)
		if err != nil {
			return nil, err
		}
		return clause.Expr{SQL: "? IS NULL", Vars: []any{col}}, nil

	case Contains:
		col, err := c.Column(n.Field)
		if err != nil {
			return nil, err
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(n.Value)) + "%"
		return clause.Expr{SQL: `LOWER(?) LIKE ? ESCAPE '\'`, Vars: []any{col, pattern}}, nil

	case JoinEq:
		return c.join(Join{Association: n.Association, Where: Eq{Field: n.Field, Value: n.Value}})

	case Join:
		return c.join(n)

	case And:
		exprs, err := c.children(n)
		if err != nil {
			return nil, err
		}
		switch len(exprs) {
		case 0:
			return nil, nil
		case 1:
			return exprs[0], nil
		}
		return clause.AndConditions{Exprs: exprs}, nil

	case Or:
		exprs, err := c.children(n)
		if err != nil {
			return nil, err
		}
		if len(exprs) < len(n) {
			// a child that matches every row makes the disjunction match every row
			return nil, nil
		}
		switch len(exprs) {
		case 0:
			return clause.Expr{SQL: "1 = 0"}, nil
		case 1:
			return exprs[0], nil
		}
		return clause.OrConditions{Exprs: exprs}, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedExpr, e)
}

func (c *Compiler) children(nodes []Expr) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(nodes))
	for _, node := range nodes {
		ce, err := c.Where(node)
		if err != nil {
			return nil, err
		}
		if ce != nil {
			exprs = append(exprs, ce)
		}
	}
	return exprs, nil
}

// join renders `local IN (SELECT remote FROM related WHERE ...)`, which keeps
// the outer statement free of JOIN clauses and therefore usable for count,
// sum and delete as well as find.
func (c *Compiler) join(n Join) (clause.Expression, error) {
	rel, ok := c.schema.Relationships.Relations[n.Association]
	if !ok || len(rel.References) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAssociation, c.schema.Name, n.Association)
	}

	ref := rel.References[0]
	local, remote := ref.ForeignKey, ref.PrimaryKey
	if ref.OwnPrimaryKey {
		local, remote = ref.PrimaryKey, ref.ForeignKey
	}

	related := &Compiler{db: c.db, schema: rel.FieldSchema, table: rel.FieldSchema.Table}
	where, err := related.Where(All(n.Where, c.guard))
	if err != nil {
		return nil, err
	}

	sub := c.db.Session(&gorm.Session{NewDB: true}).
		Table(rel.FieldSchema.Table).
		Select("?", clause.Column{Table: rel.FieldSchema.Table, Name: remote.DBName})
	if where != nil {
		sub = sub.Clauses(clause.Where{Exprs: []clause.Expression{where}})
	}

	return clause.Expr{
		SQL:  "? IN (?)",
		Vars: []any{clause.Column{Table: c.table, Name: local.DBName}, sub},
	}, nil
}

// Order compiles sort keys into an ORDER BY clause.
func (c *Compiler) Order(orders []OrderBy) (clause.OrderBy, error) {
	out := clause.OrderBy{Columns: make([]clause.OrderByColumn, 0, len(orders))}
	for _, o := range orders {
		col, err := c.Column(o.Field)
		if err != nil {
			return clause.OrderBy{}, err
		}
		out.Columns = append(out.Columns, clause.OrderByColumn{Column: col, Desc: o.Desc})
	}
	return out, nil
}
