package telemetry

import (
	"errors"

	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterDBTracing installs the otelgorm plugin on db and tags each
// statement's span with the tenant it ran for. Query variables are never
// recorded because they carry owner data.
func RegisterDBTracing(db *gorm.DB, enabled bool, logger *zap.Logger) error {
	if !enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName("postgresql"),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	cb := db.Callback()
	if err := cb.Query().After("gorm:query").Register("telemetry:tenant_query", tagTenant); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("telemetry:tenant_create", tagTenant); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("telemetry:tenant_update", tagTenant); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("telemetry:tenant_delete", tagTenant); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("telemetry:tenant_row", tagTenant); err != nil {
		return err
	}

	logger.Info("Database tracing enabled")
	return nil
}

func tagTenant(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if schema, ok := reqctx.Tenant(ctx); ok {
		span.SetAttributes(attribute.String("db.tenant", schema))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetAttributes(attribute.Bool("db.failed", true))
	}
}
