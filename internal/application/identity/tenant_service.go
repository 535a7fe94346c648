package identity

import (
	"context"

	"github.com/expensetracker/backend/internal/infrastructure/persistence/tenant"
	"github.com/expensetracker/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SchemaMigrator creates and migrates tenant schemas on demand
type SchemaMigrator interface {
	CreateSchemaIfAbsent(ctx context.Context, schema string) error
	Migrate(ctx context.Context, schema string) (int, error)
}

// TenantService runs operational tasks on tenant schemas
type TenantService struct {
	migrator SchemaMigrator
	logger   *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(migrator SchemaMigrator, logger *zap.Logger) *TenantService {
	return &TenantService{migrator: migrator, logger: logger}
}

// MigrateTenant creates schema when absent and applies its pending scripts
func (s *TenantService) MigrateTenant(ctx context.Context, schema string) (result *MigrateTenantResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tenant", "migrate", attribute.String("db.tenant", schema))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := tenant.ValidateSchemaName(schema); err != nil {
		return nil, err
	}
	if err := s.migrator.CreateSchemaIfAbsent(ctx, schema); err != nil {
		return nil, err
	}
	applied, err := s.migrator.Migrate(ctx, schema)
	if err != nil {
		s.logger.Error("Tenant migration failed", zap.String("schema", schema), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Tenant migrated", zap.String("schema", schema), zap.Int("applied", applied))
	return &MigrateTenantResult{Schema: schema, Applied: applied}, nil
}
