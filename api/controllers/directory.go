package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// directoryService is the shared contract of the per-production lookup
// services (places, suppliers, people, sets).
type directoryService[DTO any, Input any] interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]DTO, error)
	Get(ctx context.Context, productionID, id uuid.UUID) (*DTO, error)
	Create(ctx context.Context, productionID uuid.UUID, input Input) (*DTO, error)
	Update(ctx context.Context, productionID, id uuid.UUID, input Input) (*DTO, error)
	Delete(ctx context.Context, productionID, id uuid.UUID) error
}

func DirectoryList[DTO any, Input any](svc directoryService[DTO, Input], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), production.ID, r.URL.Query().Get("q"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func DirectoryGet[DTO any, Input any](svc directoryService[DTO, Input], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		dto, err := svc.Get(r.Context(), production.ID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DirectoryCreate[DTO any, Input any](svc directoryService[DTO, Input], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		var input Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), production.ID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func DirectoryUpdate[DTO any, Input any](svc directoryService[DTO, Input], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		var input Input
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), production.ID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DirectoryDelete[DTO any, Input any](svc directoryService[DTO, Input], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		if err := svc.Delete(r.Context(), production.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
