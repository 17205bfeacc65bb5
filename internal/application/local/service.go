package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/local"
	"github.com/orderdesk/backend/internal/domain/shared"
)

// AddressRequest is the body of an address create or update.
type AddressRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Phone string `json:"phone" binding:"max=30"`
	Line1 string `json:"line1" binding:"max=200"`
	City  string `json:"city" binding:"max=100"`
	Notes string `json:"notes" binding:"max=500"`
}

func (r AddressRequest) input() local.AddressInput {
	return local.AddressInput{Name: r.Name, Phone: r.Phone, Line1: r.Line1, City: r.City, Notes: r.Notes}
}

// TicketRequest is the body of a ticket create.
type TicketRequest struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=4000"`
}

// AddressService manages the address book.
type AddressService struct {
	repo local.AddressRepository
}

// NewAddressService creates an AddressService.
func NewAddressService(repo local.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// List returns addresses whose name, phone or city contains search.
func (s *AddressService) List(ctx context.Context, search string) ([]local.Address, error) {
	return s.repo.List(ctx, search)
}

// Create adds an address.
func (s *AddressService) Create(ctx context.Context, req AddressRequest) (*local.Address, error) {
	a, err := local.NewAddress(req.input())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return a, nil
}

// Update edits an address.
func (s *AddressService) Update(ctx context.Context, id uuid.UUID, req AddressRequest) (*local.Address, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Address not found")
	}
	if err := a.Update(req.input()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return a, nil
}

// Delete removes an address.
func (s *AddressService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Address not found")
	}
	return nil
}

// TicketService manages support tickets.
type TicketService struct {
	repo local.TicketRepository
}

// NewTicketService creates a TicketService.
func NewTicketService(repo local.TicketRepository) *TicketService {
	return &TicketService{repo: repo}
}

// List returns every ticket, newest first.
func (s *TicketService) List(ctx context.Context) ([]local.SupportTicket, error) {
	return s.repo.List(ctx)
}

// Create opens a ticket.
func (s *TicketService) Create(ctx context.Context, req TicketRequest) (*local.SupportTicket, error) {
	t, err := local.NewSupportTicket(req.Subject, req.Message)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}
	return t, nil
}

// Close closes an open ticket.
func (s *TicketService) Close(ctx context.Context, id uuid.UUID) (*local.SupportTicket, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Ticket not found")
	}
	if err := t.Close(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save ticket: %w", err)
	}
	return t, nil
}

// Delete removes a ticket.
func (s *TicketService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Ticket not found")
	}
	return nil
}

// ActivityService keeps the bounded activity log.
type ActivityService struct {
	repo local.ActivityRepository
	keep int
}

// NewActivityService creates an ActivityService that retains the newest
// local.MaxActivityEntries entries.
func NewActivityService(repo local.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo, keep: local.MaxActivityEntries}
}

// Record appends an entry and prunes old ones.
func (s *ActivityService) Record(ctx context.Context, entry local.ActivityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return s.repo.Append(ctx, &entry, s.keep)
}

// Recent returns up to limit entries, newest first.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]local.ActivityEntry, error) {
	if limit <= 0 || limit > s.keep {
		limit = s.keep
	}
	return s.repo.Recent(ctx, limit)
}

// Clear removes every entry.
func (s *ActivityService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func notFound(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError("NOT_FOUND", message)
	}
	return err
}
