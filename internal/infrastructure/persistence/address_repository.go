package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAddressRepository implements local.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// List returns addresses ordered by name. A non-empty search keeps those
// whose name, phone or city contains it, ignoring case.
func (r *GormAddressRepository) List(ctx context.Context, search string) ([]local.Address, error) {
	query := r.db.WithContext(ctx).Model(&models.AddressModel{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(phone) LIKE ? ESCAPE '\\' OR LOWER(city) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}

	var rows []models.AddressModel
	if err := query.Order("name ASC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	addresses := make([]local.Address, len(rows))
	for i := range rows {
		addresses[i] = *rows[i].ToDomain()
	}
	return addresses, nil
}

// FindByID finds an address by its ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*local.Address, error) {
	var row models.AddressModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// Save inserts or updates an address
func (r *GormAddressRepository) Save(ctx context.Context, a *local.Address) error {
	return r.db.WithContext(ctx).Save(models.AddressModelFromDomain(a)).Error
}

// Delete removes an address
func (r *GormAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AddressModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Ensure GormAddressRepository implements local.AddressRepository
var _ local.AddressRepository = (*GormAddressRepository)(nil)
