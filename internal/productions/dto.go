package productions

import (
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
)

// ProductionDTO exposes tenant data to members.
type ProductionDTO struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	OwnerID   *uuid.UUID `json:"owner_user_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	Company   string     `json:"company,omitempty"`
	Members   int        `json:"member_count"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PublicProductionDTO is the unauthenticated by-slug payload. It carries just
// enough to render a landing page.
type PublicProductionDTO struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	IsActive bool      `json:"is_active"`
}

// FromModel maps the persisted production into a member-facing DTO.
func FromModel(m *models.Production) *ProductionDTO {
	if m == nil {
		return nil
	}
	return &ProductionDTO{
		ID:        m.ID,
		Title:     m.Title,
		Slug:      m.Slug,
		OwnerID:   m.OwnerRef(),
		IsActive:  m.IsActive,
		Phone:     m.Phone,
		Address:   m.Address,
		Company:   m.Company,
		Members:   len(m.Members.Normalize()),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// PublicFromModel maps the persisted production into the public DTO.
func PublicFromModel(m *models.Production) *PublicProductionDTO {
	if m == nil {
		return nil
	}
	return &PublicProductionDTO{
		ID:       m.ID,
		Title:    m.Title,
		Slug:     m.Slug,
		IsActive: m.IsActive,
	}
}
