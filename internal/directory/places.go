// Package directory holds the per-production lookup records: places,
// suppliers, crew contacts and sets. They share the same production-scoped
// CRUD shape; items and run sheets reference them by id.
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

// PlaceDTO is the API shape of a storage or staging location.
type PlaceDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address,omitempty"`
	Notes   string    `json:"notes,omitempty"`
}

// PlaceInput covers create and patch; nil fields stay unchanged on patch.
type PlaceInput struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// Places manages storage locations within one production.
type Places struct {
	db *gorm.DB
}

func NewPlaces(db *gorm.DB) *Places {
	return &Places{db: db}
}

func (p *Places) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]PlaceDTO, error) {
	rows, err := listScoped[models.Place](ctx, p.db, productionID, query, "name ILIKE ? OR address ILIKE ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]PlaceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, placeDTO(&row))
	}
	return out, nil
}

func (p *Places) Get(ctx context.Context, productionID, id uuid.UUID) (*PlaceDTO, error) {
	row, err := findScoped[models.Place](ctx, p.db, productionID, id, "place not found")
	if err != nil {
		return nil, err
	}
	dto := placeDTO(row)
	return &dto, nil
}

func (p *Places) Create(ctx context.Context, productionID uuid.UUID, input PlaceInput) (*PlaceDTO, error) {
	name, err := requiredName(input.Name)
	if err != nil {
		return nil, err
	}
	row := &models.Place{
		ProductionID: productionID,
		Name:         name,
		Address:      stringOr(input.Address),
		Notes:        stringOr(input.Notes),
	}
	if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create place")
	}
	dto := placeDTO(row)
	return &dto, nil
}

func (p *Places) Update(ctx context.Context, productionID, id uuid.UUID, input PlaceInput) (*PlaceDTO, error) {
	row, err := findScoped[models.Place](ctx, p.db, productionID, id, "place not found")
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name, err := requiredName(input.Name)
		if err != nil {
			return nil, err
		}
		row.Name = name
	}
	if input.Address != nil {
		row.Address = *input.Address
	}
	if input.Notes != nil {
		row.Notes = *input.Notes
	}
	if err := p.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save place")
	}
	dto := placeDTO(row)
	return &dto, nil
}

func (p *Places) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	return deleteScoped[models.Place](ctx, p.db, productionID, id, "place not found")
}

func placeDTO(m *models.Place) PlaceDTO {
	return PlaceDTO{ID: m.ID, Name: m.Name, Address: m.Address, Notes: m.Notes}
}

func requiredName(name *string) (string, error) {
	if name == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	return trimmed, nil
}

func stringOr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
