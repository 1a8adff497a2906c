package runsheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

var validStatuses = map[string]struct{}{
	"draft":       {},
	"scheduled":   {},
	"in_progress": {},
	"done":        {},
	"cancelled":   {},
}

type runSheetRepository interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]models.RunSheet, error)
	FindByID(ctx context.Context, productionID, id uuid.UUID) (*models.RunSheet, error)
	Create(ctx context.Context, sheet *models.RunSheet) error
	Update(ctx context.Context, sheet *models.RunSheet) error
	Delete(ctx context.Context, productionID, id uuid.UUID) (bool, error)
}

// Service manages pickup and return schedules within one production.
type Service interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]RunSheetDTO, error)
	Get(ctx context.Context, productionID, id uuid.UUID) (*RunSheetDTO, error)
	Create(ctx context.Context, productionID, createdBy uuid.UUID, input CreateInput) (*RunSheetDTO, error)
	Update(ctx context.Context, productionID, id uuid.UUID, input UpdateInput) (*RunSheetDTO, error)
	Delete(ctx context.Context, productionID, id uuid.UUID) error
	SetStopDone(ctx context.Context, productionID, id uuid.UUID, stopIndex int, done bool) (*RunSheetDTO, error)
}

type service struct {
	repo runSheetRepository
}

func NewService(repo runSheetRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("run sheet repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput is the run sheet creation payload.
type CreateInput struct {
	Title   string
	Date    *time.Time
	Driver  string
	Vehicle string
	Stops   []dbtypes.RunStop
}

// UpdateInput patches run sheet fields; nil means leave unchanged. A non-nil
// Stops replaces the whole ordered list.
type UpdateInput struct {
	Title   *string
	Date    *time.Time
	Driver  *string
	Vehicle *string
	Status  *string
	Stops   *[]dbtypes.RunStop
}

func (s *service) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]RunSheetDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	sheets, err := s.repo.List(ctx, productionID, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list run sheets")
	}
	out := make([]RunSheetDTO, 0, len(sheets))
	for i := range sheets {
		out = append(out, *FromModel(&sheets[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, productionID, id uuid.UUID) (*RunSheetDTO, error) {
	sheet, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(sheet), nil
}

func (s *service) Create(ctx context.Context, productionID, createdBy uuid.UUID, input CreateInput) (*RunSheetDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := validateStops(input.Stops); err != nil {
		return nil, err
	}

	sheet := &models.RunSheet{
		ProductionID: productionID,
		Title:        title,
		Date:         input.Date,
		Driver:       input.Driver,
		Vehicle:      input.Vehicle,
		Status:       "draft",
		Stops:        dbtypes.StopList(input.Stops),
		CreatedBy:    createdBy,
	}
	if err := s.repo.Create(ctx, sheet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create run sheet")
	}
	return FromModel(sheet), nil
}

func (s *service) Update(ctx context.Context, productionID, id uuid.UUID, input UpdateInput) (*RunSheetDTO, error) {
	sheet, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		sheet.Title = title
	}
	if input.Date != nil {
		sheet.Date = input.Date
	}
	if input.Driver != nil {
		sheet.Driver = *input.Driver
	}
	if input.Vehicle != nil {
		sheet.Vehicle = *input.Vehicle
	}
	if input.Status != nil {
		if _, ok := validStatuses[*input.Status]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status").
				WithDetails(map[string]string{"status": *input.Status})
		}
		sheet.Status = *input.Status
	}
	if input.Stops != nil {
		if err := validateStops(*input.Stops); err != nil {
			return nil, err
		}
		sheet.Stops = dbtypes.StopList(*input.Stops)
	}

	if err := s.repo.Update(ctx, sheet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save run sheet")
	}
	return FromModel(sheet), nil
}

func (s *service) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, productionID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete run sheet")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "run sheet not found")
	}
	return nil
}

// SetStopDone flips one stop's done flag without replacing the rest of the
// list, so drivers can tick stops off from the road.
func (s *service) SetStopDone(ctx context.Context, productionID, id uuid.UUID, stopIndex int, done bool) (*RunSheetDTO, error) {
	sheet, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}
	if stopIndex < 0 || stopIndex >= len(sheet.Stops) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stop index out of range")
	}
	sheet.Stops[stopIndex].Done = done
	if err := s.repo.Update(ctx, sheet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save run sheet")
	}
	return FromModel(sheet), nil
}

func (s *service) load(ctx context.Context, productionID, id uuid.UUID) (*models.RunSheet, error) {
	sheet, err := s.repo.FindByID(ctx, productionID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load run sheet")
	}
	if sheet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run sheet not found")
	}
	return sheet, nil
}

func validateStops(stops []dbtypes.RunStop) error {
	for i, stop := range stops {
		if strings.TrimSpace(stop.Label) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "stop label is required").
				WithDetails(map[string]int{"index": i})
		}
	}
	return nil
}
