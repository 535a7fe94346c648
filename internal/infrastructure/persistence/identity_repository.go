package persistence

import (
	"context"
	"errors"

	"github.com/expensetracker/backend/internal/domain/identity"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/models"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/scoped"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPrincipalRepository implements identity.PrincipalRepository on the
// control-plane schema
type GormPrincipalRepository struct {
	strategy scoped.Strategy
}

// NewGormPrincipalRepository creates a principal repository
func NewGormPrincipalRepository(strategy scoped.Strategy) *GormPrincipalRepository {
	return &GormPrincipalRepository{strategy: strategy}
}

// Create implements identity.PrincipalRepository
func (r *GormPrincipalRepository) Create(ctx context.Context, p *identity.Principal) error {
	return r.strategy.Control(ctx, func(tx *gorm.DB) error {
		m := models.PrincipalModelFromDomain(p)
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		*p = *m.ToDomain()
		return nil
	})
}

// FindByID implements identity.PrincipalRepository
func (r *GormPrincipalRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Principal, error) {
	return r.take(ctx, "id = ?", id)
}

// FindByEmail implements identity.PrincipalRepository
func (r *GormPrincipalRepository) FindByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	normalized, err := identity.NormalizeEmail(email)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return r.take(ctx, "email = ?", normalized)
}

func (r *GormPrincipalRepository) take(ctx context.Context, cond string, arg any) (*identity.Principal, error) {
	var m models.PrincipalModel
	err := r.strategy.Control(ctx, func(tx *gorm.DB) error {
		return tx.Where(cond, arg).Take(&m).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// GormTenantRepository implements identity.TenantRepository on the
// control-plane schema
type GormTenantRepository struct {
	strategy scoped.Strategy
}

// NewGormTenantRepository creates a tenant repository
func NewGormTenantRepository(strategy scoped.Strategy) *GormTenantRepository {
	return &GormTenantRepository{strategy: strategy}
}

// Ensure implements identity.TenantRepository. Concurrent callers for the
// same schema all observe the single stored row.
func (r *GormTenantRepository) Ensure(ctx context.Context, t *identity.Tenant) (*identity.Tenant, error) {
	var stored models.TenantModel
	err := r.strategy.Control(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schema_name"}},
			DoNothing: true,
		}).Create(models.TenantModelFromDomain(t)).Error; err != nil {
			return err
		}
		return tx.Where("schema_name = ?", t.SchemaName).Take(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	if stored.PrincipalID != t.PrincipalID {
		return nil, shared.ErrAlreadyExists
	}
	return stored.ToDomain(), nil
}

// FindByPrincipal implements identity.TenantRepository
func (r *GormTenantRepository) FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*identity.Tenant, error) {
	var m models.TenantModel
	err := r.strategy.Control(ctx, func(tx *gorm.DB) error {
		return tx.Where("principal_id = ?", principalID).Take(&m).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

var (
	_ identity.PrincipalRepository = (*GormPrincipalRepository)(nil)
	_ identity.TenantRepository    = (*GormTenantRepository)(nil)
)
