// Package tenant provides the tenant isolation boundary.
// Every row in the store carries a tenant identifier and every operation is
// scoped to exactly one tenant; cross-tenant visibility is never permitted.
// Tenant resolution (who the caller is) happens outside the core - this
// package only transports the resolved identifier through the call chain.
package tenant

import (
	"context"
	"errors"
)

type ctxKey int

const tenantIDKey ctxKey = iota

// ErrNoTenantInContext is returned when an operation runs without a resolved tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithTenantID stores the resolved tenant identifier in context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantID retrieves the tenant identifier from context, empty if absent.
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// RequireTenantID retrieves the tenant identifier or fails.
func RequireTenantID(ctx context.Context) (string, error) {
	tid := GetTenantID(ctx)
	if tid == "" {
		return "", ErrNoTenantInContext
	}
	return tid, nil
}
