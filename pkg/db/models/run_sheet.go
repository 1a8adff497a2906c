package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
)

// RunSheet is a day's pickup and return schedule with ordered stops.
type RunSheet struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID        `gorm:"type:uuid;column:production_id;not null;index"`
	Title        string           `gorm:"column:title;not null"`
	Date         *time.Time       `gorm:"column:date"`
	Driver       string           `gorm:"column:driver;not null;default:''"`
	Vehicle      string           `gorm:"column:vehicle;not null;default:''"`
	Status       string           `gorm:"column:status;not null;default:'draft'"`
	Stops        dbtypes.StopList `gorm:"column:stops;type:jsonb;not null;default:'[]'"`
	CreatedBy    uuid.UUID        `gorm:"type:uuid;column:created_by"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (r *RunSheet) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
