package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

// SupplierDTO is the API shape of a vendor record.
type SupplierDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Contact string    `json:"contact,omitempty"`
	Email   string    `json:"email,omitempty"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
	Website string    `json:"website,omitempty"`
	Notes   string    `json:"notes,omitempty"`
}

// SupplierInput covers create and patch; nil fields stay unchanged on patch.
type SupplierInput struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Website *string `json:"website,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// Suppliers manages vendor records within one production.
type Suppliers struct {
	db *gorm.DB
}

func NewSuppliers(db *gorm.DB) *Suppliers {
	return &Suppliers{db: db}
}

func (s *Suppliers) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]SupplierDTO, error) {
	rows, err := listScoped[models.Supplier](ctx, s.db, productionID, query, "name ILIKE ? OR contact ILIKE ? OR email ILIKE ?", limit)
	if err != nil {
		return nil, err
	}
	out := make([]SupplierDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, supplierDTO(&row))
	}
	return out, nil
}

func (s *Suppliers) Get(ctx context.Context, productionID, id uuid.UUID) (*SupplierDTO, error) {
	row, err := findScoped[models.Supplier](ctx, s.db, productionID, id, "supplier not found")
	if err != nil {
		return nil, err
	}
	dto := supplierDTO(row)
	return &dto, nil
}

func (s *Suppliers) Create(ctx context.Context, productionID uuid.UUID, input SupplierInput) (*SupplierDTO, error) {
	name, err := requiredName(input.Name)
	if err != nil {
		return nil, err
	}
	row := &models.Supplier{
		ProductionID: productionID,
		Name:         name,
		Contact:      stringOr(input.Contact),
		Email:        stringOr(input.Email),
		Phone:        stringOr(input.Phone),
		Address:      stringOr(input.Address),
		Website:      stringOr(input.Website),
		Notes:        stringOr(input.Notes),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	dto := supplierDTO(row)
	return &dto, nil
}

func (s *Suppliers) Update(ctx context.Context, productionID, id uuid.UUID, input SupplierInput) (*SupplierDTO, error) {
	row, err := findScoped[models.Supplier](ctx, s.db, productionID, id, "supplier not found")
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
	if input.Contact != nil {
		row.Contact = *input.Contact
	}
	if input.Email != nil {
		row.Email = *input.Email
	}
	if input.Phone != nil {
		row.Phone = *input.Phone
	}
	if input.Address != nil {
		row.Address = *input.Address
	}
	if input.Website != nil {
		row.Website = *input.Website
	}
	if input.Notes != nil {
		row.Notes = *input.Notes
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save supplier")
	}
	dto := supplierDTO(row)
	return &dto, nil
}

func (s *Suppliers) Delete(ctx context.Context, productionID, id uuid.UUID) error {
	return deleteScoped[models.Supplier](ctx, s.db, productionID, id, "supplier not found")
}

func supplierDTO(m *models.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:      m.ID,
		Name:    m.Name,
		Contact: m.Contact,
		Email:   m.Email,
		Phone:   m.Phone,
		Address: m.Address,
		Website: m.Website,
		Notes:   m.Notes,
	}
}
