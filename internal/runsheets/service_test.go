package runsheets

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

type stubRunSheetRepo struct {
	sheets map[uuid.UUID]*models.RunSheet
}

func newStubRunSheetRepo() *stubRunSheetRepo {
	return &stubRunSheetRepo{sheets: map[uuid.UUID]*models.RunSheet{}}
}

func (s *stubRunSheetRepo) List(_ context.Context, productionID uuid.UUID, query string, limit int) ([]models.RunSheet, error) {
	var out []models.RunSheet
	for _, sheet := range s.sheets {
		if sheet.ProductionID == productionID {
			out = append(out, *sheet)
		}
	}
	return out, nil
}

func (s *stubRunSheetRepo) FindByID(_ context.Context, productionID, id uuid.UUID) (*models.RunSheet, error) {
	sheet, ok := s.sheets[id]
	if !ok || sheet.ProductionID != productionID {
		return nil, nil
	}
	copy := *sheet
	copy.Stops = append(dbtypes.StopList(nil), sheet.Stops...)
	return &copy, nil
}

func (s *stubRunSheetRepo) Create(_ context.Context, sheet *models.RunSheet) error {
	if sheet.ID == uuid.Nil {
		sheet.ID = uuid.New()
	}
	stored := *sheet
	s.sheets[sheet.ID] = &stored
	return nil
}

func (s *stubRunSheetRepo) Update(_ context.Context, sheet *models.RunSheet) error {
	stored := *sheet
	s.sheets[sheet.ID] = &stored
	return nil
}

func (s *stubRunSheetRepo) Delete(_ context.Context, productionID, id uuid.UUID) (bool, error) {
	sheet, ok := s.sheets[id]
	if !ok || sheet.ProductionID != productionID {
		return false, nil
	}
	delete(s.sheets, id)
	return true, nil
}

func TestCreateStartsAsDraft(t *testing.T) {
	svc, _ := NewService(newStubRunSheetRepo())
	productionID := uuid.New()

	dto, err := svc.Create(context.Background(), productionID, uuid.New(), CreateInput{
		Title: "Monday pickups",
		Stops: []dbtypes.RunStop{
			{Label: "Prop house", Address: "12 Vine St"},
			{Label: "Stage 4 return"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Status != "draft" {
		t.Fatalf("status = %q, want draft", dto.Status)
	}
	if len(dto.Stops) != 2 {
		t.Fatalf("stops = %d, want 2", len(dto.Stops))
	}
}

func TestCreateRejectsUnlabeledStop(t *testing.T) {
	svc, _ := NewService(newStubRunSheetRepo())

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{
		Title: "Monday pickups",
		Stops: []dbtypes.RunStop{{Label: "  "}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestUpdateReplacesStopsAndStatus(t *testing.T) {
	svc, _ := NewService(newStubRunSheetRepo())
	productionID := uuid.New()

	dto, _ := svc.Create(context.Background(), productionID, uuid.New(), CreateInput{
		Title: "Monday pickups",
		Stops: []dbtypes.RunStop{{Label: "Prop house"}},
	})

	status := "scheduled"
	stops := []dbtypes.RunStop{{Label: "Warehouse"}, {Label: "Stage 4"}}
	updated, err := svc.Update(context.Background(), productionID, dto.ID, UpdateInput{
		Status: &status,
		Stops:  &stops,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != "scheduled" {
		t.Fatalf("status = %q", updated.Status)
	}
	if len(updated.Stops) != 2 || updated.Stops[0].Label != "Warehouse" {
		t.Fatalf("stops = %+v", updated.Stops)
	}

	bad := "paused"
	_, err = svc.Update(context.Background(), productionID, dto.ID, UpdateInput{Status: &bad})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSetStopDone(t *testing.T) {
	svc, _ := NewService(newStubRunSheetRepo())
	productionID := uuid.New()

	dto, _ := svc.Create(context.Background(), productionID, uuid.New(), CreateInput{
		Title: "Monday pickups",
		Stops: []dbtypes.RunStop{{Label: "Prop house"}, {Label: "Stage 4"}},
	})

	updated, err := svc.SetStopDone(context.Background(), productionID, dto.ID, 1, true)
	if err != nil {
		t.Fatalf("SetStopDone: %v", err)
	}
	if !updated.Stops[1].Done || updated.Stops[0].Done {
		t.Fatalf("stops = %+v", updated.Stops)
	}

	_, err = svc.SetStopDone(context.Background(), productionID, dto.ID, 5, true)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestDeleteScopedToProduction(t *testing.T) {
	svc, _ := NewService(newStubRunSheetRepo())
	productionID := uuid.New()

	dto, _ := svc.Create(context.Background(), productionID, uuid.New(), CreateInput{Title: "Monday pickups"})

	err := svc.Delete(context.Background(), uuid.New(), dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("cross-production delete: err = %v, want not found", err)
	}

	if err := svc.Delete(context.Background(), productionID, dto.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
