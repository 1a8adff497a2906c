package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
)

// ItemDTO is the API shape of an inventory item.
type ItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Quantity    int        `json:"quantity"`
	PriceCents  int64      `json:"price_cents"`
	Tags        []string   `json:"tags"`
	Photos      []string   `json:"photos"`
	PlaceID     *uuid.UUID `json:"place_id,omitempty"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	SetID       *uuid.UUID `json:"set_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func FromModel(m *models.Item) *ItemDTO {
	return &ItemDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		Quantity:    m.Quantity,
		PriceCents:  m.PriceCents,
		Tags:        append([]string(nil), m.Tags...),
		Photos:      append([]string(nil), m.Photos...),
		PlaceID:     m.PlaceID,
		SupplierID:  m.SupplierID,
		SetID:       m.SetID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
