package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/setdecrunner/backend/api/responses"
	pkgAuth "github.com/setdecrunner/backend/pkg/auth"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"

	"github.com/google/uuid"
)

// authCookieName is the fallback used by browser clients that cannot set the
// Authorization header, e.g. plain anchor-tag downloads.
const authCookieName = "token"

// UserLoader fetches the current account record for each request so bans and
// role changes apply immediately instead of at token expiry.
type UserLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth validates the access token, reloads the user, and seeds the request
// context. Tokens are accepted from the Authorization header or, failing
// that, the auth cookie.
func Auth(cfg config.JWTConfig, users UserLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
				return
			}
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists"))
				return
			}
			if user.Banned {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account suspended"))
				return
			}

			ctx := WithUser(r.Context(), user)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":     user.ID.String(),
					"global_role": string(user.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
