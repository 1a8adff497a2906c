package items

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
	"github.com/setdecrunner/backend/pkg/storage"
)

var validStatuses = map[string]struct{}{
	"available": {},
	"on_set":    {},
	"in_repair": {},
	"returned":  {},
	"sold":      {},
	"lost":      {},
}

type itemRepository interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]models.Item, error)
	FindByID(ctx context.Context, productionID, id uuid.UUID) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, productionID, id uuid.UUID) (bool, error)
}

// Service manages set-dressing inventory within one production.
type Service interface {
	List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]ItemDTO, error)
	Get(ctx context.Context, productionID, id uuid.UUID) (*ItemDTO, error)
	Create(ctx context.Context, productionID, createdBy uuid.UUID, input CreateInput) (*ItemDTO, error)
	Update(ctx context.Context, productionID, id uuid.UUID, input UpdateInput) (*ItemDTO, error)
	Delete(ctx context.Context, productionID, id uuid.UUID) error
	AttachPhoto(ctx context.Context, productionID, id uuid.UUID, contentType string, body io.Reader) (*ItemDTO, error)
	RemovePhoto(ctx context.Context, productionID, id uuid.UUID, photoURL string) (*ItemDTO, error)
}

type service struct {
	repo   itemRepository
	photos storage.Store
	logg   *logger.Logger
}

func NewService(repo itemRepository, photos storage.Store, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if photos == nil {
		return nil, fmt.Errorf("photo store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, photos: photos, logg: logg}, nil
}

// CreateInput is the item creation payload.
type CreateInput struct {
	Name        string
	Description string
	Status      string
	Quantity    int
	PriceCents  int64
	Tags        []string
	PlaceID     *uuid.UUID
	SupplierID  *uuid.UUID
	SetID       *uuid.UUID
}

// UpdateInput patches item fields; nil means leave unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	Quantity    *int
	PriceCents  *int64
	Tags        *[]string
	PlaceID     *uuid.UUID
	SupplierID  *uuid.UUID
	SetID       *uuid.UUID
}

func (s *service) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]ItemDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	items, err := s.repo.List(ctx, productionID, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, productionID, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) Create(ctx context.Context, productionID, createdBy uuid.UUID, input CreateInput) (*ItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	status := input.Status
	if status == "" {
		status = "available"
	}
	if _, ok := validStatuses[status]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status").
			WithDetails(map[string]string{"status": status})
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	item := &models.Item{
		ProductionID: productionID,
		Name:         name,
		Description:  input.Description,
		Status:       status,
		Quantity:     quantity,
		PriceCents:   input.PriceCents,
		Tags:         pq.StringArray(input.Tags),
		Photos:       pq.StringArray{},
		PlaceID:      input.PlaceID,
		SupplierID:   input.SupplierID,
		SetID:        input.SetID,
		CreatedBy:    createdBy,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	return FromModel(item), nil
}

func (s *service) Update(ctx context.Context, productionID, id uuid.UUID, input UpdateInput) (*ItemDTO, error) {
	item, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Status != nil {
		if _, ok := validStatuses[*input.Status]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status").
				WithDetails(map[string]string{"status": *input.Status})
		}
		item.Status = *input.Status
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		item.Quantity = *input.Quantity
	}
	if input.PriceCents != nil {
		item.PriceCents = *input.PriceCents
	}
	if input.Tags != nil {
		item.Tags = pq.StringArray(*input.Tags)
	}
	if input.PlaceID != nil {
		item.PlaceID = nilIfZero(input.PlaceID)
	}
	if input.SupplierID != nil {
		item.SupplierID = nilIfZero(input.SupplierID)
	}
	if input.SetID != nil {
		item.SetID = nilIfZero(input.SetID)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
	}
	return FromModel(item), nil
}

func (s *service) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	item, err := s.load(ctx, productionID, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, productionID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	// Photos are cleaned up after the row is gone; a failed delete just
	// leaves an orphaned file behind.
	for _, url := range item.Photos {
		if err := s.photos.Delete(ctx, url); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "photo cleanup failed")
		}
	}
	return nil
}

func (s *service) AttachPhoto(ctx context.Context, productionID, id uuid.UUID, contentType string, body io.Reader) (*ItemDTO, error) {
	item, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}
	url, err := s.photos.Save(ctx, contentType, body)
	if err != nil {
		return nil, err
	}
	item.Photos = append(item.Photos, url)
	if err := s.repo.Update(ctx, item); err != nil {
		if delErr := s.photos.Delete(ctx, url); delErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", delErr.Error()), "orphan photo cleanup failed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
	}
	return FromModel(item), nil
}

func (s *service) RemovePhoto(ctx context.Context, productionID, id uuid.UUID, photoURL string) (*ItemDTO, error) {
	item, err := s.load(ctx, productionID, id)
	if err != nil {
		return nil, err
	}

	kept := make(pq.StringArray, 0, len(item.Photos))
	found := false
	for _, url := range item.Photos {
		if url == photoURL {
			found = true
			continue
		}
		kept = append(kept, url)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
	}

	item.Photos = kept
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item")
	}
	if err := s.photos.Delete(ctx, photoURL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "photo delete failed")
	}
	return FromModel(item), nil
}

func (s *service) load(ctx context.Context, productionID, id uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, productionID, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
