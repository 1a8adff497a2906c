package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Item is a set-dressing asset tracked within a production.
type Item struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID      `gorm:"type:uuid;column:production_id;not null;index"`
	Name         string         `gorm:"column:name;not null"`
	Description  string         `gorm:"column:description;not null;default:''"`
	Status       string         `gorm:"column:status;not null;default:'available'"`
	Quantity     int            `gorm:"column:quantity;not null;default:1"`
	PriceCents   int64          `gorm:"column:price_cents;not null;default:0"`
	Tags         pq.StringArray `gorm:"type:text[];column:tags;not null;default:ARRAY[]::text[]"`
	Photos       pq.StringArray `gorm:"type:text[];column:photos;not null;default:ARRAY[]::text[]"`
	PlaceID      *uuid.UUID     `gorm:"type:uuid;column:place_id"`
	SupplierID   *uuid.UUID     `gorm:"type:uuid;column:supplier_id"`
	SetID        *uuid.UUID     `gorm:"type:uuid;column:set_id"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid;column:created_by"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
