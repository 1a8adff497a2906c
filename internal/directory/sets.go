package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

// SetDTO is the API shape of a dressed set or scene grouping.
type SetDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// SetInput covers create and patch; nil fields stay unchanged on patch.
type SetInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Sets manages set groupings within one production.
type Sets struct {
	db *gorm.DB
}

func NewSets(db *gorm.DB) *Sets {
	return &Sets{db: db}
}

func (s *Sets) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]SetDTO, error) {
	rows, err := listScoped[models.Set](ctx, s.db, productionID, query, "name ILIKE ? OR location ILIKE ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]SetDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, setDTO(&row))
	}
	return out, nil
}

func (s *Sets) Get(ctx context.Context, productionID, id uuid.UUID) (*SetDTO, error) {
	row, err := findScoped[models.Set](ctx, s.db, productionID, id, "set not found")
	if err != nil {
		return nil, err
	}
	dto := setDTO(row)
	return &dto, nil
}

func (s *Sets) Create(ctx context.Context, productionID uuid.UUID, input SetInput) (*SetDTO, error) {
	name, err := requiredName(input.Name)
	if err != nil {
		return nil, err
	}
	row := &models.Set{
		ProductionID: productionID,
		Name:         name,
		Description:  stringOr(input.Description),
		Location:     stringOr(input.Location),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create set")
	}
	dto := setDTO(row)
	return &dto, nil
}

func (s *Sets) Update(ctx context.Context, productionID, id uuid.UUID, input SetInput) (*SetDTO, error) {
	row, err := findScoped[models.Set](ctx, s.db, productionID, id, "set not found")
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
	if input.Description != nil {
		row.Description = *input.Description
	}
	if input.Location != nil {
		row.Location = *input.Location
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save set")
	}
	dto := setDTO(row)
	return &dto, nil
}

func (s *Sets) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	return deleteScoped[models.Set](ctx, s.db, productionID, id, "set not found")
}

func setDTO(m *models.Set) SetDTO {
	return SetDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Location:    m.Location,
	}
}
