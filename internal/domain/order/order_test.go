package order

import (
	"errors"
	"testing"

	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
	}{
		{"canonical", "Delivered", StatusDelivered},
		{"lower case", "delivered", StatusDelivered},
		{"underscore", "in_transit", StatusInTransit},
		{"upper with space", "IN TRANSIT", StatusInTransit},
		{"hyphen", "in-transit", StatusInTransit},
		{"extra whitespace", "  in   transit ", StatusInTransit},
		{"cancelled", "CANCELLED", StatusCancelled},
		{"pending", "pending", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := ParseStatus("Lost")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("rejects empty status", func(t *testing.T) {
		_, err := ParseStatus("   ")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestStatusIs(t *testing.T) {
	assert.True(t, Status("delivered").Is(StatusDelivered))
	assert.True(t, Status("IN_TRANSIT").Is(StatusInTransit))
	assert.False(t, StatusPending.Is(StatusDelivered))
	assert.True(t, Status("Lost").Is("lost"))
}

func TestDraftNormalizeAndValidate(t *testing.T) {
	t.Run("defaults status and trims fields", func(t *testing.T) {
		d := Draft{SerialNumber: "  SN-1 ", Owner: " Ahsan ", OrderDate: "2024-05-01T10:00:00Z"}.Normalize()
		assert.Equal(t, "SN-1", d.SerialNumber)
		assert.Equal(t, "Ahsan", d.Owner)
		assert.Equal(t, "2024-05-01", d.OrderDate)
		assert.Equal(t, StatusPending, d.Status)
		assert.NoError(t, d.Validate())
	})

	t.Run("canonicalises status", func(t *testing.T) {
		d := Draft{SerialNumber: "SN", Owner: "Wahab", OrderDate: "2024-05-01", Status: "in_transit"}.Normalize()
		assert.Equal(t, StatusInTransit, d.Status)
	})

	tests := []struct {
		name  string
		draft Draft
		code  string
	}{
		{"missing serial", Draft{Owner: "A", OrderDate: "2024-01-01", Status: StatusPending}, "INVALID_SERIAL"},
		{"missing owner", Draft{SerialNumber: "S", OrderDate: "2024-01-01", Status: StatusPending}, "INVALID_OWNER"},
		{"bad date", Draft{SerialNumber: "S", Owner: "A", OrderDate: "2024-02-30", Status: StatusPending}, "INVALID_DATE"},
		{"bad status", Draft{SerialNumber: "S", Owner: "A", OrderDate: "2024-01-01", Status: "Lost"}, "INVALID_STATUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			require.Error(t, err)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestParseSerialBatch(t *testing.T) {
	t.Run("trims, drops blanks and dedupes", func(t *testing.T) {
		got, err := ParseSerialBatch("A\nA\n  B \n\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got)
	})

	t.Run("handles windows and old mac line endings", func(t *testing.T) {
		got, err := ParseSerialBatch("X1\r\nX2\rX3\r\nX1")
		require.NoError(t, err)
		assert.Equal(t, []string{"X1", "X2", "X3"}, got)
	})

	t.Run("keeps first occurrence order", func(t *testing.T) {
		got, err := ParseSerialBatch("C\nB\nC\nA\nB")
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "B", "A"}, got)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := ParseSerialBatch(" \n\n\t\n")
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})
}
