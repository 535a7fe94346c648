// Package query defines a typed filter-expression tree and compiles it into
// GORM clauses. Field names are resolved through the model's GORM schema, so
// only declared fields can reach generated SQL.
package query

import "github.com/google/uuid"

// Expr is a node of a filter tree. A nil Expr matches every row.
type Expr interface {
	expr()
}

// Eq matches rows whose field equals Value. A nil Value matches NULL.
type Eq struct {
	Field string
	Value any
}

// Between matches rows whose field lies in the closed range [From, To].
type Between struct {
	Field    string
	From, To any
}

// IsNull matches rows whose field is NULL.
type IsNull struct {
	Field string
}

// Contains matches rows whose text field contains Value, ignoring case.
type Contains struct {
	Field string
	Value string
}

// Join matches rows that have at least one related row, reached through the
// named association, satisfying Where.
type Join struct {
	Association string
	Where       Expr
}

// JoinEq matches rows whose related row, reached through Association, has
// Field equal to Value.
type JoinEq struct {
	Association string
	Field       string
	Value       any
}

// And matches rows satisfying every child. An empty And matches every row.
type And []Expr

// Or matches rows satisfying at least one child. An empty Or matches nothing.
type Or []Expr

func (Eq) expr()       {}
func (Between) expr()  {}
func (IsNull) expr()   {}
func (Contains) expr() {}
func (Join) expr()     {}
func (JoinEq) expr()   {}
func (And) expr()      {}
func (Or) expr()       {}

// ID matches the row with the given primary key.
func ID(id uuid.UUID) Expr {
	return Eq{Field: "id", Value: id}
}

// All combines the non-nil expressions with And, dropping nil children.
func All(exprs ...Expr) Expr {
	out := make(And, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

// OrderBy sorts results by Field.
type OrderBy struct {
	Field string
	Desc  bool
}

// Asc sorts ascending by field.
func Asc(field string) OrderBy { return OrderBy{Field: field} }

// Desc sorts descending by field.
func Desc(field string) OrderBy { return OrderBy{Field: field, Desc: true} }

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

// MaxPageSize caps the rows returned by a single page.
const MaxPageSize = 100

// Normalize clamps the page into valid bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
