package tenant

import (
	"context"
	"fmt"

	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"gorm.io/gorm"
)

// Router pins one pooled connection per unit of work and points it at a
// schema before handing it out. The directive is issued on every checkout
// and never cached, because pooled connections move between tenants.
type Router struct {
	db            *gorm.DB
	defaultSchema string
}

// NewRouter creates a router over db. Work without a tenant and control-plane
// work run against defaultSchema.
func NewRouter(db *gorm.DB, defaultSchema string) (*Router, error) {
	if err := ValidateSchemaName(defaultSchema); err != nil {
		return nil, err
	}
	return &Router{db: db, defaultSchema: defaultSchema}, nil
}

// Conn runs fn on a connection routed to the tenant bound to ctx, or to the
// default schema when ctx carries no tenant.
func (r *Router) Conn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	schema, ok := reqctx.Tenant(ctx)
	if !ok {
		schema = r.defaultSchema
	}
	return r.On(ctx, schema, fn)
}

// Control runs fn on a connection routed to the default schema.
func (r *Router) Control(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.On(ctx, r.defaultSchema, fn)
}

// On runs fn on a connection routed to schema. Every statement fn issues,
// including transactions it opens, uses that same connection.
func (r *Router) On(ctx context.Context, schema string, fn func(tx *gorm.DB) error) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		session := conn.Session(&gorm.Session{NewDB: true})
		if err := session.Exec("SET search_path TO " + quoteIdent(schema)).Error; err != nil {
			return fmt.Errorf("tenant: route connection to %s: %w", schema, err)
		}
		return fn(session)
	})
}
