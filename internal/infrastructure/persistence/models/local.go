package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain/local"
)

// AddressModel is a row of addresses.
type AddressModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null;index:idx_addresses_name"`
	Phone string `gorm:"type:varchar(50);not null;default:''"`
	Line1 string `gorm:"type:varchar(500);not null;default:''"`
	City  string `gorm:"type:varchar(100);not null;default:''"`
	Notes string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the model to a local.Address
func (m *AddressModel) ToDomain() *local.Address {
	return &local.Address{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Line1:     m.Line1,
		City:      m.City,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the model from a local.Address
func (m *AddressModel) FromDomain(a *local.Address) {
	m.ID = a.ID
	m.Name = a.Name
	m.Phone = a.Phone
	m.Line1 = a.Line1
	m.City = a.City
	m.Notes = a.Notes
	m.CreatedAt = utc(a.CreatedAt)
	m.UpdatedAt = utc(a.UpdatedAt)
}

// AddressModelFromDomain creates an AddressModel from a local.Address
func AddressModelFromDomain(a *local.Address) *AddressModel {
	m := &AddressModel{}
	m.FromDomain(a)
	return m
}

// TicketModel is a row of support_tickets.
type TicketModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Subject   string     `gorm:"type:varchar(200);not null"`
	Message   string     `gorm:"type:text;not null"`
	Status    string     `gorm:"type:varchar(10);not null;default:'open'"`
	CreatedAt time.Time  `gorm:"not null"`
	ClosedAt  *time.Time
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "support_tickets"
}

// ToDomain converts the model to a local.SupportTicket
func (m *TicketModel) ToDomain() *local.SupportTicket {
	return &local.SupportTicket{
		ID:        m.ID,
		Subject:   m.Subject,
		Message:   m.Message,
		Status:    local.TicketStatus(m.Status),
		CreatedAt: m.CreatedAt,
		ClosedAt:  m.ClosedAt,
	}
}

// FromDomain populates the model from a local.SupportTicket
func (m *TicketModel) FromDomain(t *local.SupportTicket) {
	m.ID = t.ID
	m.Subject = t.Subject
	m.Message = t.Message
	m.Status = string(t.Status)
	m.CreatedAt = utc(t.CreatedAt)
	m.ClosedAt = utcPtr(t.ClosedAt)
}

// TicketModelFromDomain creates a TicketModel from a local.SupportTicket
func TicketModelFromDomain(t *local.SupportTicket) *TicketModel {
	m := &TicketModel{}
	m.FromDomain(t)
	return m
}

// ActivityModel is a row of activity_entries.
type ActivityModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action       string    `gorm:"type:varchar(30);not null"`
	Description  string    `gorm:"type:text;not null"`
	SerialNumber string    `gorm:"type:varchar(100);not null;default:''"`
	Owner        string    `gorm:"type:varchar(100);not null;default:''"`
	Username     string    `gorm:"type:varchar(100);not null;default:''"`
	At           time.Time `gorm:"not null;index:idx_activity_entries_at"`
}

// TableName returns the table name for GORM
func (ActivityModel) TableName() string {
	return "activity_entries"
}

// ToDomain converts the model to a local.ActivityEntry
func (m *ActivityModel) ToDomain() local.ActivityEntry {
	return local.ActivityEntry{
		ID:          m.ID,
		Action:      local.Action(m.Action),
		Description: m.Description,
		Serial:      m.SerialNumber,
		Owner:       m.Owner,
		Username:    m.Username,
		At:          m.At,
	}
}

// ActivityModelFromDomain creates an ActivityModel from a local.ActivityEntry
func ActivityModelFromDomain(e *local.ActivityEntry) *ActivityModel {
	return &ActivityModel{
		ID:           e.ID,
		Action:       string(e.Action),
		Description:  e.Description,
		SerialNumber: e.Serial,
		Owner:        e.Owner,
		Username:     e.Username,
		At:           utc(e.At),
	}
}
