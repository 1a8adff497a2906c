package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Person is a crew contact kept per production, distinct from the account
// roster in Production.Members.
type Person struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductionID uuid.UUID `gorm:"type:uuid;column:production_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Role         string    `gorm:"column:role;not null;default:''"`
	Email        string    `gorm:"column:email;not null;default:''"`
	Phone        string    `gorm:"column:phone;not null;default:''"`
	Notes        string    `gorm:"column:notes;not null;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (p *Person) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
