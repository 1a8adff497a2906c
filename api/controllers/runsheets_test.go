package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/api/middleware"
	"github.com/setdecrunner/backend/internal/runsheets"
	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

type stubRunSheetService struct {
	dto  *runsheets.RunSheetDTO
	list []runsheets.RunSheetDTO
	err  error

	lastCreate    runsheets.CreateInput
	lastStopIndex int
	lastStopDone  bool
}

func (s *stubRunSheetService) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]runsheets.RunSheetDTO, error) {
	return s.list, s.err
}

func (s *stubRunSheetService) Get(ctx context.Context, productionID, id uuid.UUID) (*runsheets.RunSheetDTO, error) {
	return s.dto, s.err
}

func (s *stubRunSheetService) Create(ctx context.Context, productionID, createdBy uuid.UUID, input runsheets.CreateInput) (*runsheets.RunSheetDTO, error) {
	s.lastCreate = input
	return s.dto, s.err
}

func (s *stubRunSheetService) Update(ctx context.Context, productionID, id uuid.UUID, input runsheets.UpdateInput) (*runsheets.RunSheetDTO, error) {
	return s.dto, s.err
}

func (s *stubRunSheetService) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	return s.err
}

func (s *stubRunSheetService) SetStopDone(ctx context.Context, productionID, id uuid.UUID, stopIndex int, done bool) (*runsheets.RunSheetDTO, error) {
	s.lastStopIndex = stopIndex
	s.lastStopDone = done
	return s.dto, s.err
}

func runSheetScopedRequest(req *http.Request) *http.Request {
	ctx := middleware.WithUser(req.Context(), &models.User{ID: uuid.New()})
	ctx = middleware.WithProduction(ctx, &models.Production{ID: uuid.New(), Slug: "acme-films"})
	return req.WithContext(ctx)
}

func TestRunSheetCreateWithStops(t *testing.T) {
	svc := &stubRunSheetService{dto: &runsheets.RunSheetDTO{ID: uuid.New(), Title: "Monday pickups", Status: "draft"}}
	handler := RunSheetCreate(svc, nil)

	body := bytes.NewBufferString(`{"title":"Monday pickups","driver":"Sam","stops":[{"label":"Prop house","address":"12 Vine St"},{"label":"Stage 4"}]}`)
	req := runSheetScopedRequest(httptest.NewRequest(http.MethodPost, "/api/runsheets", body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastCreate.Title != "Monday pickups" || len(svc.lastCreate.Stops) != 2 {
		t.Fatalf("unexpected create input: %+v", svc.lastCreate)
	}
	if svc.lastCreate.Stops[0].Label != "Prop house" {
		t.Fatalf("expected stop label decoded, got %+v", svc.lastCreate.Stops[0])
	}
}

func TestRunSheetStopDoneForwardsIndex(t *testing.T) {
	svc := &stubRunSheetService{dto: &runsheets.RunSheetDTO{ID: uuid.New()}}
	handler := RunSheetStopDone(svc, nil)

	sheetID := uuid.New()
	body := bytes.NewBufferString(`{"done":true}`)
	req := runSheetScopedRequest(httptest.NewRequest(http.MethodPatch, "/api/runsheets/"+sheetID.String()+"/stops/1", body))
	rc := withURLParam(req, "id", sheetID.String())
	rc = withURLParam(rc, "stopIndex", "1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rc)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastStopIndex != 1 || !svc.lastStopDone {
		t.Fatalf("unexpected stop call: index=%d done=%v", svc.lastStopIndex, svc.lastStopDone)
	}
}

func TestRunSheetStopDoneInvalidIndex(t *testing.T) {
	handler := RunSheetStopDone(&stubRunSheetService{}, nil)

	sheetID := uuid.New()
	body := bytes.NewBufferString(`{"done":true}`)
	req := runSheetScopedRequest(httptest.NewRequest(http.MethodPatch, "/api/runsheets/"+sheetID.String()+"/stops/x", body))
	rc := withURLParam(req, "id", sheetID.String())
	rc = withURLParam(rc, "stopIndex", "x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rc)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRunSheetStopDoneOutOfRangePassesThrough(t *testing.T) {
	svc := &stubRunSheetService{err: pkgerrors.New(pkgerrors.CodeValidation, "stop index out of range")}
	handler := RunSheetStopDone(svc, nil)

	sheetID := uuid.New()
	body := bytes.NewBufferString(`{"done":true}`)
	req := runSheetScopedRequest(httptest.NewRequest(http.MethodPatch, "/api/runsheets/"+sheetID.String()+"/stops/9", body))
	rc := withURLParam(req, "id", sheetID.String())
	rc = withURLParam(rc, "stopIndex", "9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, rc)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRunSheetListSuccess(t *testing.T) {
	svc := &stubRunSheetService{list: []runsheets.RunSheetDTO{{ID: uuid.New(), Title: "Monday pickups"}}}
	handler := RunSheetList(svc, nil)

	req := runSheetScopedRequest(httptest.NewRequest(http.MethodGet, "/api/runsheets", nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data []runsheets.RunSheetDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}
