package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
)

// Repository handles user persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to user operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a user by id. A missing row returns (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by normalized email. A missing row returns (nil, nil).
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("lower(email) = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetDigest loads a user by the stored reset token digest when the
// token has not expired yet.
func (r *Repository) FindByResetDigest(ctx context.Context, digest string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("password_reset_token = ? AND password_reset_expires > ?", digest, time.Now()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create persists a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	user.Email = normalizeEmail(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

// Update saves the provided user.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// List returns all users ordered by creation, for the admin surface.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns users matching the query on email or name, newest first.
// An empty query lists everyone up to the limit.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	tx := r.db.WithContext(ctx)
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("lower(email) LIKE ? OR lower(name) LIKE ?", pattern, pattern)
	}
	var users []models.User
	if err := tx.Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user row. It reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByIDs loads the given users in one query. Missing ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListByProductionID returns users whose own membership list names the
// production, regardless of what the production's roster says.
func (r *Repository) ListByProductionID(ctx context.Context, productionID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("production_ids @> ARRAY[?]::uuid[]", productionID).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// AddProductionID appends the production to the user's membership list if it
// is not present. The row is locked so concurrent repairs do not clobber each
// other's reads.
func (r *Repository) AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(lockForUpdate()).Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		if user.ProductionIDs.Contains(productionID) {
			return nil
		}
		user.ProductionIDs = user.ProductionIDs.Add(productionID)
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("production_ids", user.ProductionIDs).Error
	})
}

// RemoveProductionID drops the production from the user's membership list and
// reports whether the list actually held it.
func (r *Repository) RemoveProductionID(ctx context.Context, userID, productionID uuid.UUID) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(lockForUpdate()).Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		next, removed := user.ProductionIDs.Remove(productionID)
		if !removed {
			return nil
		}
		changed = true
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("production_ids", next).Error
	})
	return changed, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
