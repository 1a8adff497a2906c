package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

// listScoped runs the shared production-scoped list query. searchClause is
// the ILIKE condition with one placeholder per pattern occurrence.
func listScoped[T any](ctx context.Context, db *gorm.DB, productionID uuid.UUID, query, searchClause string, limit int) ([]T, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	tx := db.WithContext(ctx).Where("production_id = ?", productionID)
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + q + "%"
		args := make([]any, strings.Count(searchClause, "?"))
		for i := range args {
			args[i] = pattern
		}
		tx = tx.Where(searchClause, args...)
	}
	var rows []T
	if err := tx.Order("name ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list records")
	}
	return rows, nil
}

func findScoped[T any](ctx context.Context, db *gorm.DB, productionID, id uuid.UUID, notFound string) (*T, error) {
	var row T
	err := db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load record")
	}
	return &row, nil
}

func deleteScoped[T any](ctx context.Context, db *gorm.DB, productionID, id uuid.UUID, notFound string) error {
	var model T
	res := db.WithContext(ctx).
		Where("id = ? AND production_id = ?", id, productionID).
		Delete(&model)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "delete record")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return nil
}
