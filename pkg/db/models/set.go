package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Set groups items into a dressed set or scene.
type Set struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID `gorm:"type:uuid;column:production_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description;not null;default:''"`
	Location     string    `gorm:"column:location;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (s *Set) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
