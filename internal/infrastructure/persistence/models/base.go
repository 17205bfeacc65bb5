package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides the id and timestamps shared by local tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// utc normalizes stored times so that sqlite, which keeps them as text,
// sorts them correctly.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
