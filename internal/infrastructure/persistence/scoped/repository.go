package scoped

import (
	"context"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/google/uuid"
)

// Repository is the generic facade every owned record type gets for free.
// It is built only on Engine, so it cannot reach rows outside the caller's scope.
type Repository[T any] struct {
	engine *Engine[T]
}

// NewRepository wraps engine.
func NewRepository[T any](engine *Engine[T]) *Repository[T] {
	return &Repository[T]{engine: engine}
}

// Engine exposes the underlying scoped query engine for custom filters.
func (r *Repository[T]) Engine() *Engine[T] {
	return r.engine
}

// Save inserts rec when it has no id, otherwise updates the caller's record.
// Ownership is assigned on insert and never rewritten.
func (r *Repository[T]) Save(ctx context.Context, rec *T) error {
	if any(rec).(Owned).GetID() == uuid.Nil {
		return r.engine.Create(ctx, rec)
	}
	return r.engine.Update(ctx, rec)
}

// FindByID returns the caller's record with id, or shared.ErrNotFound.
func (r *Repository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.engine.FindOne(ctx, query.ID(id))
}

// ExistsByID reports whether the caller owns a record with id.
func (r *Repository[T]) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.engine.Exists(ctx, query.ID(id))
}

// DeleteByID removes the caller's record with id, or returns shared.ErrNotFound.
func (r *Repository[T]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	n, err := r.engine.Delete(ctx, query.ID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns one page of the caller's records, newest first.
func (r *Repository[T]) List(ctx context.Context, page query.Page) (shared.Paginated[T], error) {
	return r.engine.FindPage(ctx, nil, page)
}
