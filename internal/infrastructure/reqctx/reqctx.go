// Package reqctx carries the identity of the caller for the lifetime of one
// request. Values live on context.Context and are threaded explicitly from the
// HTTP edge down to persistence; nothing is stored in goroutine-global state.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	principalKey contextKey = iota
	tenantKey
	internalKey
)

// WithPrincipal returns a copy of ctx carrying the authenticated principal.
func WithPrincipal(ctx context.Context, principalID uuid.UUID) context.Context {
	return context.WithValue(ctx, principalKey, principalID)
}

// Principal returns the authenticated principal, if any.
func Principal(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(principalKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithTenant returns a copy of ctx carrying the tenant schema name.
func WithTenant(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, tenantKey, schema)
}

// Tenant returns the tenant schema bound to the request, if any.
func Tenant(ctx context.Context) (string, bool) {
	schema, ok := ctx.Value(tenantKey).(string)
	if !ok || schema == "" {
		return "", false
	}
	return schema, true
}

// WithInternal marks ctx as an internal-operations call authorized by a
// pre-shared secret rather than a user credential.
func WithInternal(ctx context.Context) context.Context {
	return context.WithValue(ctx, internalKey, true)
}

// IsInternal reports whether ctx belongs to an internal-operations call.
func IsInternal(ctx context.Context) bool {
	v, _ := ctx.Value(internalKey).(bool)
	return v
}
