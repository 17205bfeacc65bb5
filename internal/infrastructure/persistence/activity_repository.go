package persistence

import (
	"context"

	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityRepository implements local.ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append inserts e and deletes all but the newest keep entries in the same
// transaction.
func (r *GormActivityRepository) Append(ctx context.Context, e *local.ActivityEntry, keep int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ActivityModelFromDomain(e)).Error; err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}
		newest := tx.Model(&models.ActivityModel{}).
			Select("id").
			Order("at DESC").Order("id DESC").
			Limit(keep)
		return tx.Where("id NOT IN (?)", newest).Delete(&models.ActivityModel{}).Error
	})
}

// Recent returns up to limit entries, newest first
func (r *GormActivityRepository) Recent(ctx context.Context, limit int) ([]local.ActivityEntry, error) {
	var rows []models.ActivityModel
	query := r.db.WithContext(ctx).Order("at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]local.ActivityEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Clear removes every entry
func (r *GormActivityRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ActivityModel{}).Error
}

// Ensure GormActivityRepository implements local.ActivityRepository
var _ local.ActivityRepository = (*GormActivityRepository)(nil)
