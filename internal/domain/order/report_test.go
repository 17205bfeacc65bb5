package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountByStatus(t *testing.T) {
	t.Run("zero-fills every status", func(t *testing.T) {
		counts := CountByStatus(nil)
		require.Len(t, counts, 4)
		for _, c := range counts {
			assert.Zero(t, c.Count)
		}
	})

	t.Run("counts ignoring case", func(t *testing.T) {
		counts := CountByStatus(sampleOrders())
		assert.Equal(t, []StatusCount{
			{Status: StatusPending, Count: 1},
			{Status: StatusInTransit, Count: 1},
			{Status: StatusDelivered, Count: 2},
			{Status: StatusCancelled, Count: 0},
		}, counts)
	})
}

func TestFilterByStatus(t *testing.T) {
	orders := sampleOrders()
	got := FilterByStatus(orders, "delivered")
	assert.Len(t, got, CountWithStatus(orders, StatusDelivered))
	assert.Equal(t, 2, len(got))
}

func TestStatusPie(t *testing.T) {
	t.Run("percentages to one decimal", func(t *testing.T) {
		orders := append(sampleOrders(), Order{ID: "5", Status: StatusCancelled}, Order{ID: "6", Status: StatusPending})
		slices := StatusPie(orders)
		require.Len(t, slices, 4)
		assert.Equal(t, "Pending", slices[0].Label)
		assert.Equal(t, 2, slices[0].Value)
		assert.InDelta(t, 33.3, slices[0].Percent, 0.001)
		assert.InDelta(t, 16.7, slices[1].Percent, 0.001)
	})

	t.Run("empty input has zero percentages", func(t *testing.T) {
		for _, s := range StatusPie(nil) {
			assert.Zero(t, s.Percent)
		}
	})
}

func TestBarSeries(t *testing.T) {
	orders := sampleOrders()

	assert.Equal(t, []BarPoint{
		{Label: "Ahsan", Value: 2},
		{Label: "Bilal", Value: 1},
		{Label: "Wahab", Value: 1},
	}, OrdersByOwner(orders))

	byDate := OrdersByDate(orders)
	require.Len(t, byDate, 4)
	assert.Equal(t, "2024-05-01", byDate[0].Label)
	assert.Equal(t, "2024-05-04", byDate[3].Label)
}

func TestExtractInvoiceFields(t *testing.T) {
	owners := []string{"Ahsan", "Wahab"}

	t.Run("labels, date and owner", func(t *testing.T) {
		text := "INVOICE\nBill to: wahab traders\nDate: 14/03/2024\nSerial: ABC123\nS/N: XYZ-999\nTracking #: TRK4455\n"
		fields := ExtractInvoiceFields(text, owners)
		assert.Equal(t, []string{"ABC123", "XYZ-999", "TRK4455"}, fields.SerialNumbers)
		assert.Equal(t, "2024-03-14", fields.OrderDate)
		assert.Equal(t, "Wahab", fields.Owner)
	})

	t.Run("first valid date wins", func(t *testing.T) {
		text := "due 31-02-2024 issued 2024-01-15 shipped 20/01/2024"
		assert.Equal(t, "2024-01-15", ExtractInvoiceFields(text, owners).OrderDate)
	})

	t.Run("order number label", func(t *testing.T) {
		fields := ExtractInvoiceFields("Order #: 778812", nil)
		assert.Equal(t, []string{"778812"}, fields.SerialNumbers)
		assert.Empty(t, fields.Owner)
		assert.Empty(t, fields.OrderDate)
	})
}
