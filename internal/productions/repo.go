package productions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
)

// Repository handles production persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to production operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a production by id. A missing row returns (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Production, error) {
	var production models.Production
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&production).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &production, nil
}

// FindBySlug loads a production by its slug. A missing row returns (nil, nil).
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Production, error) {
	var production models.Production
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&production).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &production, nil
}

// Create persists a new production row.
func (r *Repository) Create(ctx context.Context, production *models.Production) error {
	if production == nil {
		return fmt.Errorf("production is required")
	}
	return r.db.WithContext(ctx).Create(production).Error
}

// Update saves the provided production.
func (r *Repository) Update(ctx context.Context, production *models.Production) error {
	if production == nil {
		return fmt.Errorf("production is required")
	}
	return r.db.WithContext(ctx).Save(production).Error
}

// ListByIDs returns the productions for the given ids, newest first.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Production, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var productions []models.Production
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&productions).Error; err != nil {
		return nil, err
	}
	return productions, nil
}

// ListMemberOf returns every production whose roster contains the user.
// Combined with the user's own production id list this covers both sides of
// the membership relation.
func (r *Repository) ListMemberOf(ctx context.Context, userID uuid.UUID) ([]models.Production, error) {
	var productions []models.Production
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ? OR owner = ? OR members @> ?", userID, userID,
			fmt.Sprintf(`[{"user":%q}]`, userID.String())).
		Order("created_at DESC").
		Find(&productions).Error; err != nil {
		return nil, err
	}
	return productions, nil
}

// ListAll returns every production, for the admin surface.
func (r *Repository) ListAll(ctx context.Context) ([]models.Production, error) {
	var productions []models.Production
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&productions).Error; err != nil {
		return nil, err
	}
	return productions, nil
}

// ClaimOwner sets the owner if and only if neither owner column holds a value
// yet. The single conditional UPDATE is the whole race: with concurrent
// claimants the database applies exactly one, and everyone else observes zero
// affected rows.
func (r *Repository) ClaimOwner(ctx context.Context, productionID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Production{}).
		Where("id = ? AND owner_user_id IS NULL AND owner IS NULL", productionID).
		Update("owner_user_id", userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpsertMember adds or updates one roster entry. The production row is locked
// for the duration of the read-modify-write so concurrent roster changes
// serialize instead of overwriting each other.
func (r *Repository) UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var production models.Production
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", productionID).First(&production).Error; err != nil {
			return err
		}
		members := production.Members.Upsert(userID, role, time.Now().UTC())
		return tx.Model(&models.Production{}).Where("id = ?", productionID).
			Update("members", members).Error
	})
}

// RemoveMember drops one roster entry under the same row lock. It reports
// whether an entry was actually removed.
func (r *Repository) RemoveMember(ctx context.Context, productionID, userID uuid.UUID) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var production models.Production
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", productionID).First(&production).Error; err != nil {
			return err
		}
		next, changed := production.Members.Remove(userID)
		if !changed {
			return nil
		}
		removed = true
		return tx.Model(&models.Production{}).Where("id = ?", productionID).
			Update("members", next).Error
	})
	return removed, err
}

