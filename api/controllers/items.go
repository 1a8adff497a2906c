package controllers

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/items"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

// ItemList returns the production's inventory, optionally filtered by a
// search query over name, description and tags.
func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
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

func ItemGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
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

type itemCreateRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Quantity    int        `json:"quantity,omitempty" validate:"omitempty,min=0"`
	PriceCents  int64      `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Tags        []string   `json:"tags,omitempty"`
	PlaceID     *uuid.UUID `json:"place_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	SetID       *uuid.UUID `json:"set_id,omitempty"`
}

func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		user := middleware.UserFromContext(r.Context())
		if production == nil || user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "request context incomplete"))
			return
		}

		var req itemCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), production.ID, user.ID, items.CreateInput{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			Quantity:    req.Quantity,
			PriceCents:  req.PriceCents,
			Tags:        req.Tags,
			PlaceID:     req.PlaceID,
			SupplierID:  req.SupplierID,
			SetID:       req.SetID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type itemUpdateRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Quantity    *int       `json:"quantity,omitempty" validate:"omitempty,min=0"`
	PriceCents  *int64     `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Tags        *[]string  `json:"tags,omitempty"`
	PlaceID     *uuid.UUID `json:"place_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	SetID       *uuid.UUID `json:"set_id,omitempty"`
}

func ItemUpdate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var req itemUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), production.ID, id, items.UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			Quantity:    req.Quantity,
			PriceCents:  req.PriceCents,
			Tags:        req.Tags,
			PlaceID:     req.PlaceID,
			SupplierID:  req.SupplierID,
			SetID:       req.SetID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		if err := svc.Delete(r.Context(), production.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "item deleted"})
	}
}

// ItemAttachPhoto stores an uploaded photo and links it to the item. Accepts
// a multipart "photo" part or a raw image body.
func ItemAttachPhoto(svc items.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		maxBytes := int64(maxUploadMB) << 20
		if maxBytes <= 0 {
			maxBytes = 25 << 20
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		contentType, body, cleanup, err := photoBody(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer cleanup()

		dto, err := svc.AttachPhoto(r.Context(), production.ID, id, contentType, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type itemRemovePhotoRequest struct {
	URL string `json:"url" validate:"required"`
}

func ItemRemovePhoto(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		production := middleware.ProductionFromContext(r.Context())
		if production == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "production context missing"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var req itemRemovePhotoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.RemovePhoto(r.Context(), production.ID, id, req.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// photoBody extracts the upload stream from either a multipart form or a raw
// image request body.
func photoBody(r *http.Request) (string, io.Reader, func(), error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}

	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("photo")
		if err != nil {
			return "", nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "photo part missing")
		}
		partType := header.Header.Get("Content-Type")
		if partType == "" {
			partType = "application/octet-stream"
		}
		return partType, file, func() { _ = file.Close() }, nil
	}

	return mediaType, r.Body, func() {}, nil
}
