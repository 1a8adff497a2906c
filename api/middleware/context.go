package middleware

import (
	"context"

	"github.com/setdecrunner/backend/internal/authz"
	"github.com/setdecrunner/backend/pkg/db/models"
)

type contextKey string

const (
	ctxUser       contextKey = "current_user"
	ctxProduction contextKey = "current_production"
	ctxAccess     contextKey = "production_access"
)

// UserFromContext returns the authenticated user loaded by Auth, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(ctxUser).(*models.User); ok {
		return u
	}
	return nil
}

// ProductionFromContext returns the tenant resolved by ProductionContext, or nil.
func ProductionFromContext(ctx context.Context) *models.Production {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(ctxProduction).(*models.Production); ok {
		return p
	}
	return nil
}

// AccessFromContext returns the membership decision for the current request.
func AccessFromContext(ctx context.Context) (authz.Access, bool) {
	if ctx == nil {
		return authz.Access{}, false
	}
	if a, ok := ctx.Value(ctxAccess).(authz.Access); ok {
		return a, true
	}
	return authz.Access{}, false
}

// WithUser injects the authenticated user for downstream handlers.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// WithProduction injects the resolved tenant.
func WithProduction(ctx context.Context, p *models.Production) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxProduction, p)
}

// WithAccess injects the membership decision.
func WithAccess(ctx context.Context, a authz.Access) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccess, a)
}
