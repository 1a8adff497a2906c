package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/members"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// MemberList returns the production's roster merged with user-side records.
func MemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		list, err := svc.List(r.Context(), production)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type memberAddRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty"`
}

// MemberAdd invites an account, provisioning one when the email is unknown.
// Re-adding an existing member is a no-op that keeps the current role.
func MemberAdd(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		var req memberAddRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Add(r.Context(), production, req.Email, enums.MemberRole(req.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// MemberRemove detaches a member from both sides of the membership records
// and reports whether anything was actually removed. The owner cannot be
// removed.
func MemberRemove(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		removed, err := svc.Remove(r.Context(), production, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": removed})
	}
}
