package middleware

import (
	"net/http"

	"github.com/setdecrunner/backend/api/responses"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// RequireMembership rejects callers who are neither members nor owner of the
// resolved production, unless they are global admins. Owners pass even when
// drift left them off both membership records.
func RequireMembership(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := AccessFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production access not resolved"))
				return
			}
			if !access.IsMember && !access.IsOwner && !access.GlobalAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "production membership required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
