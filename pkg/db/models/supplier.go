package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is a vendor a production rents or buys from.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID `gorm:"type:uuid;column:production_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Contact      string    `gorm:"column:contact;not null;default:''"`
	Email        string    `gorm:"column:email;not null;default:''"`
	Phone        string    `gorm:"column:phone;not null;default:''"`
	Address      string    `gorm:"column:address;not null;default:''"`
	Website      string    `gorm:"column:website;not null;default:''"`
	Notes        string    `gorm:"column:notes;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (s *Supplier) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
