package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/runsheets"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

func RunSheetList(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
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

func RunSheetGet(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid run sheet id"))
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

type runSheetCreateRequest struct {
	Title   string            `json:"title" validate:"required,min=1,max=200"`
	Date    *time.Time        `json:"date,omitempty"`
	Driver  string            `json:"driver,omitempty"`
	Vehicle string            `json:"vehicle,omitempty"`
	Stops   []dbtypes.RunStop `json:"stops,omitempty"`
}

func RunSheetCreate(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		user := middleware.UserFromContext(r.Context())
		if production == nil || user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request context incomplete"))
			return
		}

		var req runSheetCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), production.ID, user.ID, runsheets.CreateInput{
			Title:   req.Title,
			Date:    req.Date,
			Driver:  req.Driver,
			Vehicle: req.Vehicle,
			Stops:   req.Stops,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type runSheetUpdateRequest struct {
	Title   *string            `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Date    *time.Time         `json:"date,omitempty"`
	Driver  *string            `json:"driver,omitempty"`
	Vehicle *string            `json:"vehicle,omitempty"`
	Status  *string            `json:"status,omitempty"`
	Stops   *[]dbtypes.RunStop `json:"stops,omitempty"`
}

func RunSheetUpdate(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid run sheet id"))
			return
		}

		var req runSheetUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), production.ID, id, runsheets.UpdateInput{
			Title:   req.Title,
			Date:    req.Date,
			Driver:  req.Driver,
			Vehicle: req.Vehicle,
			Status:  req.Status,
			Stops:   req.Stops,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func RunSheetDelete(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid run sheet id"))
			return
		}

		if err := svc.Delete(r.Context(), production.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "run sheet deleted"})
	}
}

type runStopDoneRequest struct {
	Done bool `json:"done"`
}

// RunSheetStopDone toggles the completion flag of one stop by its position.
func RunSheetStopDone(svc runsheets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid run sheet id"))
			return
		}

		stopIndex, err := strconv.Atoi(chi.URLParam(r, "stopIndex"))
		if err != nil || stopIndex < 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid stop index"))
			return
		}

		var req runStopDoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.SetStopDone(r.Context(), production.ID, id, stopIndex, req.Done)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
