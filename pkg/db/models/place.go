package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Place is a storage or staging location within a production.
type Place struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID `gorm:"type:uuid;column:production_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Address      string    `gorm:"column:address;not null;default:''"`
	Notes        string    `gorm:"column:notes;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (p *Place) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
