package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTicketRepository implements local.TicketRepository using GORM
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// List returns every ticket, newest first
func (r *GormTicketRepository) List(ctx context.Context) ([]local.SupportTicket, error) {
	var rows []models.TicketModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	tickets := make([]local.SupportTicket, len(rows))
	for i := range rows {
		tickets[i] = *rows[i].ToDomain()
	}
	return tickets, nil
}

// FindByID finds a ticket by its ID
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*local.SupportTicket, error) {
	var row models.TicketModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// Save inserts or updates a ticket
func (r *GormTicketRepository) Save(ctx context.Context, t *local.SupportTicket) error {
	return r.db.WithContext(ctx).Save(models.TicketModelFromDomain(t)).Error
}

// Delete removes a ticket
func (r *GormTicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TicketModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormTicketRepository implements local.TicketRepository
var _ local.TicketRepository = (*GormTicketRepository)(nil)
