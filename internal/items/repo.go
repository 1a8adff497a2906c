package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
)

// Repository persists items, always scoped by production.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the production's items, newest first. A non-empty query
// matches name, description or tags; limit caps the page size.
func (r *Repository) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]models.Item, error) {
	tx := r.db.WithContext(ctx).Where("production_id = ?", productionID)
	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ? OR ? = ANY(tags)", pattern, pattern, query)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var items []models.Item
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) FindByID(ctx context.Context, productionID, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) Update(ctx context.Context, item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete removes the item when it belongs to the production. It reports
// whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, productionID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		Delete(&models.Item{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
