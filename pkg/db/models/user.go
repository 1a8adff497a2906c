package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	"github.com/setdecrunner/backend/pkg/enums"
)

// User represents the canonical identity entity.
//
// ProductionIDs is the legacy membership list kept redundantly with each
// production's member roster; membership checks union both sides.
type User struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Email                string            `gorm:"type:text;not null;uniqueIndex"`
	Name                 string            `gorm:"column:name;not null;default:''"`
	PasswordHash         *string           `gorm:"column:password_hash"`
	Role                 enums.GlobalRole  `gorm:"column:role;type:text;not null;default:'user'"`
	SiteAuthorized       bool              `gorm:"column:site_authorized;not null;default:false"`
	Banned               bool              `gorm:"column:banned;not null;default:false"`
	MustChangePassword   bool              `gorm:"column:must_change_password;not null;default:false"`
	PasswordResetToken   *string           `gorm:"column:password_reset_token"`
	PasswordResetExpires *time.Time        `gorm:"column:password_reset_expires"`
	ProductionIDs        dbtypes.UUIDArray `gorm:"type:uuid[];column:production_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGlobalAdmin reports whether this user bypasses production membership.
func (u *User) IsGlobalAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
