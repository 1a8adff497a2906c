package middleware

import (
	"net/http"

	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// RequireRole admits members holding one of the allowed roles. Owners and
// global admins always pass.
func RequireRole(logg *logger.Logger, allowed ...enums.MemberRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := AccessFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production access not resolved"))
				return
			}
			if !access.HasRole(allowed...) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient production role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobalAdmin guards the platform admin surface.
func RequireGlobalAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !user.IsGlobalAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSiteAuthorized blocks accounts that have not completed checkout or
// been granted access by an admin. Global admins pass.
func RequireSiteAuthorized(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			if !user.SiteAuthorized && !user.IsGlobalAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "site access not yet authorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
