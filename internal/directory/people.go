package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

// PersonDTO is the API shape of a crew contact. These are phonebook entries,
// not accounts; the roster in production members is separate.
type PersonDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  string    `json:"role,omitempty"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
	Notes string    `json:"notes,omitempty"`
}

// PersonInput covers create and patch; nil fields stay unchanged on patch.
type PersonInput struct {
	Name  *string `json:"name,omitempty"`
	Role  *string `json:"role,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// People manages crew contacts within one production.
type People struct {
	db *gorm.DB
}

func NewPeople(db *gorm.DB) *People {
	return &People{db: db}
}

func (p *People) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]PersonDTO, error) {
	rows, err := listScoped[models.Person](ctx, p.db, productionID, query, "name ILIKE ? OR role ILIKE ? OR email ILIKE ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]PersonDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, personDTO(&row))
	}
	return out, nil
}

func (p *People) Get(ctx context.Context, productionID, id uuid.UUID) (*PersonDTO, error) {
	row, err := findScoped[models.Person](ctx, p.db, productionID, id, "person not found")
	if err != nil {
		return nil, err
	}
	dto := personDTO(row)
	return &dto, nil
}

func (p *People) Create(ctx context.Context, productionID uuid.UUID, input PersonInput) (*PersonDTO, error) {
	name, err := requiredName(input.Name)
	if err != nil {
		return nil, err
	}
	row := &models.Person{
		ProductionID: productionID,
		Name:         name,
		Role:         stringOr(input.Role),
		Email:        stringOr(input.Email),
		Phone:        stringOr(input.Phone),
		Notes:        stringOr(input.Notes),
	}
	if err := p.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create person")
	}
	dto := personDTO(row)
	return &dto, nil
}

func (p *People) Update(ctx context.Context, productionID, id uuid.UUID, input PersonInput) (*PersonDTO, error) {
	row, err := findScoped[models.Person](ctx, p.db, productionID, id, "person not found")
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
	if input.Role != nil {
		row.Role = *input.Role
	}
	if input.Email != nil {
		row.Email = *input.Email
	}
	if input.Phone != nil {
		row.Phone = *input.Phone
	}
	if input.Notes != nil {
		row.Notes = *input.Notes
	}
	if err := p.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save person")
	}
	dto := personDTO(row)
	return &dto, nil
}

func (p *People) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	return deleteScoped[models.Person](ctx, p.db, productionID, id, "person not found")
}

func personDTO(m *models.Person) PersonDTO {
	return PersonDTO{
		ID:    m.ID,
		Name:  m.Name,
		Role:  m.Role,
		Email: m.Email,
		Phone: m.Phone,
		Notes: m.Notes,
	}
}
