// Package local holds the device-only records of the dashboard: the address
// book, support tickets and the activity log. None of these are ever sent to
// the remote order API.
package local

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/shared"
)

// MaxActivityEntries is how many activity entries are retained.
const MaxActivityEntries = 100

// Address is an address book entry.
type Address struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"line1"`
	City      string    `json:"city"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AddressInput carries the editable address fields.
type AddressInput struct {
	Name  string
	Phone string
	Line1 string
	City  string
	Notes string
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Name is required")
	}
	if strings.TrimSpace(in.Phone) == "" && strings.TrimSpace(in.Line1) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Phone or address line is required")
	}
	return nil
}

// NewAddress validates input and creates an address.
func NewAddress(in AddressInput) (*Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	a := &Address{ID: uuid.New(), CreatedAt: now}
	a.apply(in, now)
	return a, nil
}

// Update replaces the editable fields.
func (a *Address) Update(in AddressInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	a.apply(in, time.Now())
	return nil
}

func (a *Address) apply(in AddressInput, at time.Time) {
	a.Name = strings.TrimSpace(in.Name)
	a.Phone = strings.TrimSpace(in.Phone)
	a.Line1 = strings.TrimSpace(in.Line1)
	a.City = strings.TrimSpace(in.City)
	a.Notes = strings.TrimSpace(in.Notes)
	a.UpdatedAt = at
}

// TicketStatus is open or closed.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// SupportTicket is a locally kept support request.
type SupportTicket struct {
	ID        uuid.UUID    `json:"id"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	ClosedAt  *time.Time   `json:"closedAt,omitempty"`
}

// NewSupportTicket creates an open ticket.
func NewSupportTicket(subject, message string) (*SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" {
		return nil, shared.NewDomainError("INVALID_SUBJECT", "Subject is required")
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Message is required")
	}
	return &SupportTicket{
		ID:        uuid.New(),
		Subject:   subject,
		Message:   message,
		Status:    TicketOpen,
		CreatedAt: time.Now(),
	}, nil
}

// Close marks the ticket closed.
func (t *SupportTicket) Close() error {
	if t.Status == TicketClosed {
		return shared.NewDomainError("INVALID_STATE", "Ticket is already closed")
	}
	now := time.Now()
	t.Status = TicketClosed
	t.ClosedAt = &now
	return nil
}

// Action identifies what an activity entry records.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionStatusChange Action = "status_change"
	ActionDelete       Action = "delete"
	ActionBulkDelete   Action = "bulk_delete"
	ActionBulkImport   Action = "bulk_import"
	ActionBulkStatus   Action = "bulk_status"
	ActionExport       Action = "export"
)

// ActivityEntry is one line of the display-only activity history.
type ActivityEntry struct {
	ID          uuid.UUID `json:"id"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	Serial      string    `json:"serialNumber,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Username    string    `json:"username,omitempty"`
	At          time.Time `json:"at"`
}

// NewActivityEntry stamps an entry with an ID and the current time.
func NewActivityEntry(action Action, description string) ActivityEntry {
	return ActivityEntry{
		ID:          uuid.New(),
		Action:      action,
		Description: description,
		At:          time.Now(),
	}
}

// AddressRepository stores address book entries.
type AddressRepository interface {
	List(ctx context.Context, search string) ([]Address, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
	Save(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TicketRepository stores support tickets.
type TicketRepository interface {
	List(ctx context.Context) ([]SupportTicket, error)
	FindByID(ctx context.Context, id uuid.UUID) (*SupportTicket, error)
	Save(ctx context.Context, t *SupportTicket) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ActivityRepository stores the activity log. Append prunes everything but
// the newest keep entries.
type ActivityRepository interface {
	Append(ctx context.Context, e *ActivityEntry, keep int) error
	Recent(ctx context.Context, limit int) ([]ActivityEntry, error)
	Clear(ctx context.Context) error
}
