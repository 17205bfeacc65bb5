// Package order holds the dashboard's view of delivery orders: the order
// record itself, status handling, filtering, the in-memory table that backs
// each dashboard view, and the pure report calculations over held rows.
package order

import (
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the wire and display format of an order date.
const DateLayout = "2006-01-02"

// Status is the delivery state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusInTransit Status = "In Transit"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

var (
	ErrInvalidStatus = shared.NewDomainError("INVALID_STATUS", "Status must be one of Pending, In Transit, Delivered, Cancelled")
	ErrEmptyBatch    = shared.NewDomainError("EMPTY_BATCH", "Enter at least one serial number")
)

// AllStatuses returns the statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInTransit, StatusDelivered, StatusCancelled}
}

// ParseStatus accepts any casing and treats underscores, hyphens and repeated
// whitespace as single spaces ("in_transit" and "IN TRANSIT" both parse).
func ParseStatus(s string) (Status, error) {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(s)
	normalized = strings.Join(strings.Fields(normalized), " ")
	if normalized == "" {
		return "", ErrInvalidStatus
	}
	// Casers are stateful, so each call gets its own.
	candidate := Status(cases.Title(language.English).String(strings.ToLower(normalized)))
	for _, st := range AllStatuses() {
		if st == candidate {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Normalize returns the canonical form of s, or s unchanged if it is not a
// known status.
func (s Status) Normalize() Status {
	if parsed, err := ParseStatus(string(s)); err == nil {
		return parsed
	}
	return s
}

// Is reports whether s names the same status as other, ignoring case.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(string(s.Normalize()), string(other.Normalize()))
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

func (s Status) String() string {
	return string(s)
}

// Order is a single delivery order as held by the dashboard.
type Order struct {
	ID           string    `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	Owner        string    `json:"owner"`
	OrderDate    string    `json:"orderDate"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Draft carries the user-editable fields of an order for create and full edit.
type Draft struct {
	SerialNumber string
	Owner        string
	OrderDate    string
	Status       Status
}

// Normalize trims fields and canonicalises the status and date.
func (d Draft) Normalize() Draft {
	d.SerialNumber = strings.TrimSpace(d.SerialNumber)
	d.Owner = strings.TrimSpace(d.Owner)
	d.OrderDate = NormalizeDate(d.OrderDate)
	if d.Status == "" {
		d.Status = StatusPending
	}
	d.Status = d.Status.Normalize()
	return d
}

// Validate checks a normalized draft.
func (d Draft) Validate() error {
	if d.SerialNumber == "" {
		return shared.NewDomainError("INVALID_SERIAL", "Serial number is required")
	}
	if d.Owner == "" {
		return shared.NewDomainError("INVALID_OWNER", "Owner is required")
	}
	if err := ValidateDate(d.OrderDate); err != nil {
		return err
	}
	if !d.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// NormalizeDate trims a date and cuts ISO timestamps down to the date part.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		return s[:len(DateLayout)]
	}
	return s
}

// ValidateDate checks that s is a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return shared.NewDomainError("INVALID_DATE", "Order date must be a valid YYYY-MM-DD date")
	}
	return nil
}
