// Package scoped confines every persistence operation to the data owned by the
// caller bound to the request context.
//
// Two strategies implement the same contract and a deployment runs exactly one:
//
//   - SchemaStrategy isolates physically. Each tenant has its own PostgreSQL
//     schema and every connection checkout is routed to it.
//   - OwnerStrategy isolates logically. Rows share tables and every statement
//     carries an owner_id = <principal> predicate.
//
// Domain repositories build on Engine and Repository and never see either.
package scoped

import (
	"context"
	"errors"
	"fmt"

	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnerColumn is the column stamped with the creating principal on every owned record.
const OwnerColumn = "owner_id"

// Isolation errors. Each means the caller's identity was missing, so the
// operation was refused instead of running unscoped.
var (
	ErrOwnerRequired     = errors.New("scoped: principal required for isolated access")
	ErrTenantRequired    = errors.New("scoped: tenant required for isolated access")
	ErrUnscopedStatement = errors.New("scoped: statement on owned table bypassed isolation")
)

// IsIsolationError reports whether err means isolation could not be established.
func IsIsolationError(err error) bool {
	return errors.Is(err, ErrOwnerRequired) ||
		errors.Is(err, ErrTenantRequired) ||
		errors.Is(err, ErrUnscopedStatement)
}

// Strategy establishes isolation for one request.
type Strategy interface {
	// Mode returns the isolation mode name.
	Mode() string
	// Predicate returns the row filter ANDed into every scoped statement,
	// or nil when rows are separated physically. It fails closed.
	Predicate(ctx context.Context) (query.Expr, error)
	// Owner returns the principal stamped on records created in ctx.
	Owner(ctx context.Context) (uuid.UUID, error)
	// Run hands fn a session on which the caller's data is reachable. It fails closed.
	Run(ctx context.Context, fn func(tx *gorm.DB) error) error
	// Control hands fn a session on the shared control-plane schema.
	Control(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type txKey struct{}

// Transaction runs fn inside one database transaction opened on the session
// strategy.Run hands out. Every scoped operation issued with the context fn
// receives joins that transaction, and nested calls reuse it. The transaction
// commits when fn returns nil and rolls back otherwise.
func Transaction(ctx context.Context, strategy Strategy, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	return strategy.Run(ctx, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		})
	})
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// ConnRouter pins a connection and points it at a schema before use.
type ConnRouter interface {
	// Conn routes to the tenant bound to ctx.
	Conn(ctx context.Context, fn func(tx *gorm.DB) error) error
	// Control routes to the default schema regardless of ctx.
	Control(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// New returns the strategy selected by mode.
func New(mode string, db *gorm.DB, router ConnRouter) (Strategy, error) {
	switch mode {
	case config.IsolationModeOwner:
		return NewOwnerStrategy(db), nil
	case config.IsolationModeSchema:
		if router == nil {
			return nil, fmt.Errorf("scoped: schema isolation requires a connection router")
		}
		return NewSchemaStrategy(router), nil
	default:
		return nil, fmt.Errorf("scoped: unknown isolation mode %q", mode)
	}
}

// OwnerStrategy shares tables across principals and filters by owner_id.
type OwnerStrategy struct {
	db *gorm.DB
}

// NewOwnerStrategy creates an owner-column strategy over db.
func NewOwnerStrategy(db *gorm.DB) *OwnerStrategy {
	return &OwnerStrategy{db: db}
}

// Mode implements Strategy.
func (s *OwnerStrategy) Mode() string { return config.IsolationModeOwner }

// Predicate implements Strategy.
func (s *OwnerStrategy) Predicate(ctx context.Context) (query.Expr, error) {
	owner, err := s.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return query.Eq{Field: OwnerColumn, Value: owner}, nil
}

// Owner implements Strategy.
func (s *OwnerStrategy) Owner(ctx context.Context) (uuid.UUID, error) {
	owner, ok := reqctx.Principal(ctx)
	if !ok {
		return uuid.Nil, ErrOwnerRequired
	}
	return owner, nil
}

// Run implements Strategy.
func (s *OwnerStrategy) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if _, ok := reqctx.Principal(ctx); !ok {
		return ErrOwnerRequired
	}
	if tx, ok := txFrom(ctx); ok {
		return fn(tx.WithContext(ctx))
	}
	return fn(s.db.WithContext(ctx))
}

// Control implements Strategy.
func (s *OwnerStrategy) Control(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(s.db.WithContext(ctx))
}

// SchemaStrategy gives every tenant its own schema and routes connections to it.
type SchemaStrategy struct {
	router ConnRouter
}

// NewSchemaStrategy creates a schema-per-tenant strategy.
func NewSchemaStrategy(router ConnRouter) *SchemaStrategy {
	return &SchemaStrategy{router: router}
}

// Mode implements Strategy.
func (s *SchemaStrategy) Mode() string { return config.IsolationModeSchema }

// Predicate implements Strategy. Rows need no filter once the connection is routed.
func (s *SchemaStrategy) Predicate(ctx context.Context) (query.Expr, error) {
	if _, ok := reqctx.Tenant(ctx); !ok {
		return nil, ErrTenantRequired
	}
	return nil, nil
}

// Owner implements Strategy.
func (s *SchemaStrategy) Owner(ctx context.Context) (uuid.UUID, error) {
	if _, ok := reqctx.Tenant(ctx); !ok {
		return uuid.Nil, ErrTenantRequired
	}
	owner, ok := reqctx.Principal(ctx)
	if !ok {
		return uuid.Nil, ErrOwnerRequired
	}
	return owner, nil
}

// Run implements Strategy.
func (s *SchemaStrategy) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if _, ok := reqctx.Tenant(ctx); !ok {
		return ErrTenantRequired
	}
	if tx, ok := txFrom(ctx); ok {
		return fn(tx.WithContext(ctx))
	}
	return s.router.Conn(ctx, fn)
}

// Control implements Strategy.
func (s *SchemaStrategy) Control(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.router.Control(ctx, fn)
}
