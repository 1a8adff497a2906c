package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
)

// Production is the tenant record. Every domain resource is scoped to exactly
// one production.
//
// Ownership lives in two synonymous columns: owner_user_id (current writer)
// and owner (legacy rows). Reads must consult both; the claim protocol only
// fires when both are unset.
type Production struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Title         string              `gorm:"column:title;not null"`
	Slug          string              `gorm:"column:slug;type:text;not null;uniqueIndex"`
	OwnerUserID   *uuid.UUID          `gorm:"column:owner_user_id;type:uuid"`
	LegacyOwnerID *uuid.UUID          `gorm:"column:owner;type:uuid"`
	Members       dbtypes.MemberList  `gorm:"column:members;type:jsonb;not null;default:'[]'"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	Phone         string              `gorm:"column:phone;not null;default:''"`
	Address       string              `gorm:"column:address;not null;default:''"`
	Company       string              `gorm:"column:company;not null;default:''"`
	Payment       dbtypes.PaymentMeta `gorm:"column:payment;type:jsonb;not null;default:'{}'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OwnerRef resolves the effective owner across both storage columns.
func (p *Production) OwnerRef() *uuid.UUID {
	if p == nil {
		return nil
	}
	if p.OwnerUserID != nil && *p.OwnerUserID != uuid.Nil {
		return p.OwnerUserID
	}
	if p.LegacyOwnerID != nil && *p.LegacyOwnerID != uuid.Nil {
		return p.LegacyOwnerID
	}
	return nil
}

// OwnedBy reports whether user is the production's owner under either column.
func (p *Production) OwnedBy(user uuid.UUID) bool {
	owner := p.OwnerRef()
	return owner != nil && *owner == user
}

// Unclaimed reports whether no owner has been recorded yet.
func (p *Production) Unclaimed() bool {
	return p.OwnerRef() == nil
}

// BeforeCreate assigns the id application-side so inserts work on both
// postgres and the sqlite dev database.
func (p *Production) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
