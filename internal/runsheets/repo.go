package runsheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/setdecrunner/backend/pkg/db/models"
)

// Repository persists run sheets, always scoped by production.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, productionID uuid.UUID, query string, limit int) ([]models.RunSheet, error) {
	tx := r.db.WithContext(ctx).Where("production_id = ?", productionID)
	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("title ILIKE ? OR driver ILIKE ?", pattern, pattern)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var sheets []models.RunSheet
	if err := tx.Order("created_at DESC").Find(&sheets).Error; err != nil {
		return nil, err
	}
	return sheets, nil
}

func (r *Repository) FindByID(ctx context.Context, productionID, id uuid.UUID) (*models.RunSheet, error) {
	var sheet models.RunSheet
	err := r.db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		First(&sheet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *Repository) Create(ctx context.Context, sheet *models.RunSheet) error {
	if sheet == nil {
		return fmt.Errorf("run sheet is required")
	}
	return r.db.WithContext(ctx).Create(sheet).Error
}

func (r *Repository) Update(ctx context.Context, sheet *models.RunSheet) error {
	if sheet == nil {
		return fmt.Errorf("run sheet is required")
	}
	return r.db.WithContext(ctx).Save(sheet).Error
}

func (r *Repository) Delete(ctx context.Context, productionID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		Delete(&models.RunSheet{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
