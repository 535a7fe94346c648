package persistence

import (
	"context"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/scoped"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ownedRepository maps domain entities D onto persistence models M stored
// through the scoped facade. Every concrete finance repository embeds one.
type ownedRepository[D any, M any] struct {
	repo       *scoped.Repository[M]
	toDomain   func(*M) D
	fromDomain func(*D) *M
}

func newOwnedRepository[D any, M any](db *gorm.DB, strategy scoped.Strategy, toDomain func(*M) D, fromDomain func(*D) *M) (*ownedRepository[D, M], error) {
	engine, err := scoped.NewEngine[M](db, strategy)
	if err != nil {
		return nil, err
	}
	return &ownedRepository[D, M]{
		repo:       scoped.NewRepository(engine),
		toDomain:   toDomain,
		fromDomain: fromDomain,
	}, nil
}

func (r *ownedRepository[D, M]) engine() *scoped.Engine[M] {
	return r.repo.Engine()
}

// Save inserts or updates entity and refreshes it with the stored identity,
// owner and timestamps.
func (r *ownedRepository[D, M]) Save(ctx context.Context, entity *D) error {
	m := r.fromDomain(entity)
	if err := r.repo.Save(ctx, m); err != nil {
		return err
	}
	*entity = r.toDomain(m)
	return nil
}

// FindByID returns the caller's entity with id, or shared.ErrNotFound
func (r *ownedRepository[D, M]) FindByID(ctx context.Context, id uuid.UUID) (*D, error) {
	m, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := r.toDomain(m)
	return &d, nil
}

// ExistsByID reports whether the caller owns an entity with id
func (r *ownedRepository[D, M]) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.repo.ExistsByID(ctx, id)
}

// DeleteByID removes the caller's entity with id, or returns shared.ErrNotFound
func (r *ownedRepository[D, M]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.repo.DeleteByID(ctx, id)
}

// List returns one page of the caller's entities, newest first
func (r *ownedRepository[D, M]) List(ctx context.Context, page finance.Page) (shared.Paginated[D], error) {
	p, err := r.repo.List(ctx, query.Page{Number: page.Number, Size: page.Size})
	if err != nil {
		return shared.Paginated[D]{}, err
	}
	return shared.MapPaginated(p, func(m M) D { return r.toDomain(&m) }), nil
}

func (r *ownedRepository[D, M]) findAll(ctx context.Context, filter query.Expr, order ...query.OrderBy) ([]D, error) {
	rows, err := r.engine().FindAll(ctx, filter, order...)
	if err != nil {
		return nil, err
	}
	out := make([]D, len(rows))
	for i := range rows {
		out[i] = r.toDomain(&rows[i])
	}
	return out, nil
}

func (r *ownedRepository[D, M]) findOne(ctx context.Context, filter query.Expr) (*D, error) {
	m, err := r.engine().FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	d := r.toDomain(m)
	return &d, nil
}

func (r *ownedRepository[D, M]) sum(ctx context.Context, field string, filter query.Expr) (decimal.Decimal, error) {
	return r.engine().Sum(ctx, field, filter)
}
