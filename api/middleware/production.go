package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/internal/authz"
	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// productionHeader names the tenant for every scoped request.
const productionHeader = "X-Production-Id"

// Authorizer resolves membership and ownership for a user/production pair.
type Authorizer interface {
	Authorize(ctx context.Context, user *models.User, productionID uuid.UUID) (authz.Access, *models.Production, error)
}

// ProductionContext resolves the tenant named by the X-Production-Id header
// and attaches the production plus the caller's access decision. Requests
// without the header are rejected before any handler runs.
func ProductionContext(resolver Authorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user := UserFromContext(ctx)
			if user == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}

			raw := strings.TrimSpace(r.Header.Get(productionHeader))
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "production context missing"))
				return
			}

			productionID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid production id"))
				return
			}

			access, production, err := resolver.Authorize(ctx, user, productionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithProduction(ctx, production)
			ctx = WithAccess(ctx, access)
			if logg != nil {
				ctx = logg.WithProductionID(ctx, production.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalProductionContext is the tolerant variant for endpoints where the
// tenant annotation is a bonus rather than a requirement. A missing,
// malformed, or unresolvable header leaves the request un-annotated instead
// of failing it.
func OptionalProductionContext(resolver Authorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user := UserFromContext(ctx)
			raw := strings.TrimSpace(r.Header.Get(productionHeader))
			if resolver == nil || user == nil || raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			productionID, err := uuid.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			access, production, err := resolver.Authorize(ctx, user, productionID)
			if err != nil || production == nil {
				if logg != nil && err != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "optional production resolution failed")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithProduction(ctx, production)
			ctx = WithAccess(ctx, access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
