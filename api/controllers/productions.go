package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/productions"
	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

type productionCreateRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=160"`
	Slug    string `json:"slug,omitempty" validate:"omitempty,max=80"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Company string `json:"company,omitempty"`
}

// ProductionCreate provisions a new production owned by the caller.
func ProductionCreate(svc productions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var req productionCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), user, productions.CreateInput{
			Title:   req.Title,
			Slug:    req.Slug,
			Phone:   req.Phone,
			Address: req.Address,
			Company: req.Company,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ProductionListMine returns every production the caller belongs to, from
// either side of the membership records.
func ProductionListMine(svc productions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		list, err := svc.ListMine(r.Context(), user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductionGet returns the production resolved by the tenant middleware.
func ProductionGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}
		responses.WriteSuccess(w, productions.FromModel(production))
	}
}

type productionUpdateRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=160"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Company  *string `json:"company,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ProductionUpdate patches the resolved production's profile fields.
func ProductionUpdate(svc productions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		var req productionUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), production, productions.UpdateInput{
			Title:    req.Title,
			Phone:    req.Phone,
			Address:  req.Address,
			Company:  req.Company,
			IsActive: req.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductionBySlug is the unauthenticated landing-page lookup.
func ProductionBySlug(svc productions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "slug")
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		dto, err := svc.GetBySlug(r.Context(), raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type ownerClaimer interface {
	EnsureOwner(ctx context.Context, user *models.User, productionID uuid.UUID) (*models.Production, error)
}

// ProductionClaimOwner lets an existing member of an unowned production take
// ownership. Claiming is idempotent for the current owner.
func ProductionClaimOwner(resolver ownerClaimer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid production id"))
			return
		}

		production, err := resolver.EnsureOwner(r.Context(), user, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productions.FromModel(production))
	}
}
