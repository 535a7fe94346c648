package scoped

import (
	"context"
	"errors"
	"fmt"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Owned is implemented by every record reachable through an Engine.
type Owned interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	SetOwner(owner uuid.UUID)
}

// Engine runs find, page, count, sum and delete over records of type T with the
// caller's ownership scope composed into every statement.
type Engine[T any] struct {
	strategy     Strategy
	schema       *schema.Schema
	defaultOrder []query.OrderBy
}

// NewEngine parses T's schema with db and binds it to strategy.
// *T must implement Owned and T must have an owner_id column.
func NewEngine[T any](db *gorm.DB, strategy Strategy) (*Engine[T], error) {
	if _, ok := any(new(T)).(Owned); !ok {
		return nil, fmt.Errorf("scoped: %T does not implement Owned", new(T))
	}
	sch, err := query.SchemaOf(db, new(T))
	if err != nil {
		return nil, fmt.Errorf("scoped: parse schema: %w", err)
	}
	if _, ok := sch.FieldsByDBName[OwnerColumn]; !ok {
		return nil, fmt.Errorf("scoped: %s has no %s column", sch.Name, OwnerColumn)
	}

	e := &Engine[T]{strategy: strategy, schema: sch}
	if _, ok := sch.FieldsByDBName["created_at"]; ok {
		e.defaultOrder = append(e.defaultOrder, query.Desc("created_at"))
	}
	e.defaultOrder = append(e.defaultOrder, query.Asc("id"))
	return e, nil
}

// Strategy returns the isolation strategy the engine runs under.
func (e *Engine[T]) Strategy() Strategy {
	return e.strategy
}

// Tx runs fn in a single transaction. Operations of any Engine bound to the
// same strategy join it when called with the context fn receives.
func (e *Engine[T]) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Transaction(ctx, e.strategy, fn)
}

type session struct {
	tx       *gorm.DB
	compiler *query.Compiler
	scope    query.Expr
}

// where compiles filter AND scope onto a fresh statement for T.
func (s *session) where(model any, filter query.Expr) (*gorm.DB, bool, error) {
	expr, err := s.compiler.Where(query.All(filter, s.scope))
	if err != nil {
		return nil, false, err
	}
	tx := s.tx.Model(model)
	if expr == nil {
		return tx, false, nil
	}
	return tx.Clauses(clause.Where{Exprs: []clause.Expression{expr}}), true, nil
}

func (e *Engine[T]) run(ctx context.Context, fn func(s *session) error) error {
	scope, err := e.strategy.Predicate(ctx)
	if err != nil {
		return err
	}
	return e.strategy.Run(ctx, func(tx *gorm.DB) error {
		tx = mark(tx)
		return fn(&session{
			tx:       tx,
			compiler: query.NewCompiler(tx, e.schema).WithGuard(scope),
			scope:    scope,
		})
	})
}

// FindAll returns every owned record matching filter.
func (e *Engine[T]) FindAll(ctx context.Context, filter query.Expr, order ...query.OrderBy) ([]T, error) {
	var items []T
	err := e.run(ctx, func(s *session) error {
		tx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		if tx, err = e.order(s, tx, order); err != nil {
			return err
		}
		return tx.Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindOne returns the single owned record matching filter, or shared.ErrNotFound.
// A record owned by someone else is indistinguishable from a missing one.
func (e *Engine[T]) FindOne(ctx context.Context, filter query.Expr) (*T, error) {
	var item T
	err := e.run(ctx, func(s *session) error {
		tx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		return tx.Take(&item).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindPage returns one page of owned records matching filter. Total counts
// the same effective filter as the page content.
func (e *Engine[T]) FindPage(ctx context.Context, filter query.Expr, page query.Page, order ...query.OrderBy) (shared.Paginated[T], error) {
	page = page.Normalize()
	var (
		items []T
		total int64
	)
	err := e.run(ctx, func(s *session) error {
		countTx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		if err := countTx.Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			return nil
		}

		tx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		if tx, err = e.order(s, tx, order); err != nil {
			return err
		}
		return tx.Limit(page.Size).Offset(page.Offset()).Find(&items).Error
	})
	if err != nil {
		return shared.Paginated[T]{}, err
	}
	if items == nil {
		items = []T{}
	}
	return shared.NewPaginated(items, total, page.Number, page.Size), nil
}

// Count returns the number of owned records matching filter.
func (e *Engine[T]) Count(ctx context.Context, filter query.Expr) (int64, error) {
	var total int64
	err := e.run(ctx, func(s *session) error {
		tx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		return tx.Count(&total).Error
	})
	return total, err
}

// Exists reports whether any owned record matches filter.
func (e *Engine[T]) Exists(ctx context.Context, filter query.Expr) (bool, error) {
	n, err := e.Count(ctx, filter)
	return n > 0, err
}

type sumResult struct {
	Total decimal.Decimal
}

// Sum adds up field over owned records matching filter. It is zero when no rows match.
func (e *Engine[T]) Sum(ctx context.Context, field string, filter query.Expr) (decimal.Decimal, error) {
	var out sumResult
	err := e.run(ctx, func(s *session) error {
		col, err := s.compiler.Column(field)
		if err != nil {
			return err
		}
		tx, _, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		return tx.Select("COALESCE(SUM(?), 0) AS total", col).Scan(&out).Error
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

// Delete removes every owned record matching filter and returns how many went.
func (e *Engine[T]) Delete(ctx context.Context, filter query.Expr) (int64, error) {
	var affected int64
	err := e.run(ctx, func(s *session) error {
		tx, conditioned, err := s.where(new(T), filter)
		if err != nil {
			return err
		}
		if !conditioned {
			// every row of a routed schema belongs to the tenant
			tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		}
		res := tx.Delete(new(T))
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

// Create stamps the caller as owner, assigns an id when missing and inserts rec.
func (e *Engine[T]) Create(ctx context.Context, rec *T) error {
	owner, err := e.strategy.Owner(ctx)
	if err != nil {
		return err
	}
	owned := any(rec).(Owned)
	owned.SetOwner(owner)
	if owned.GetID() == uuid.Nil {
		owned.SetID(uuid.New())
	}
	return e.strategy.Run(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(rec).Error
	})
}

// Update rewrites every column of rec except id, owner and creation time.
// It returns shared.ErrNotFound when rec is missing or owned by someone else.
func (e *Engine[T]) Update(ctx context.Context, rec *T) error {
	id := any(rec).(Owned).GetID()
	if id == uuid.Nil {
		return shared.ErrNotFound
	}
	return e.run(ctx, func(s *session) error {
		tx, _, err := s.where(rec, query.ID(id))
		if err != nil {
			return err
		}
		res := tx.Select("*").Omit("id", OwnerColumn, "created_at", clause.Associations).Updates(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (e *Engine[T]) order(s *session, tx *gorm.DB, order []query.OrderBy) (*gorm.DB, error) {
	if len(order) == 0 {
		order = e.defaultOrder
	}
	ob, err := s.compiler.Order(order)
	if err != nil {
		return nil, err
	}
	return tx.Clauses(ob), nil
}
