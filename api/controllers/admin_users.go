package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/identity"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// AdminUserList searches the global user directory.
func AdminUserList(svc identity.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListUsers(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminUserGet(svc identity.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		dto, err := svc.GetUser(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type adminUserCreateRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Name           string `json:"name,omitempty" validate:"omitempty,max=120"`
	Password       string `json:"password,omitempty" validate:"omitempty,min=8"`
	Role           string `json:"role,omitempty"`
	SiteAuthorized bool   `json:"site_authorized,omitempty"`
}

// AdminUserCreate provisions an account. Creating an email that already has
// an account returns the existing record unchanged.
func AdminUserCreate(svc identity.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminUserCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateUser(r.Context(), identity.AdminCreateInput{
			Email:          req.Email,
			Name:           req.Name,
			Password:       req.Password,
			Role:           req.Role,
			SiteAuthorized: req.SiteAuthorized,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type adminUserUpdateRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Role           *string `json:"role,omitempty"`
	SiteAuthorized *bool   `json:"site_authorized,omitempty"`
	Banned         *bool   `json:"banned,omitempty"`
	Password       *string `json:"password,omitempty"`
}

func AdminUserUpdate(svc identity.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var req adminUserUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateUser(r.Context(), id, identity.AdminUpdateInput{
			Name:           req.Name,
			Role:           req.Role,
			SiteAuthorized: req.SiteAuthorized,
			Banned:         req.Banned,
			Password:       req.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminUserDelete removes an account. Admins cannot delete themselves.
func AdminUserDelete(svc identity.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		if actor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		if err := svc.DeleteUser(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "user deleted"})
	}
}
