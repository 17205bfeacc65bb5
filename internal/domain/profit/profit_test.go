package profit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDraft(t *testing.T) {
	t.Run("defaults color", func(t *testing.T) {
		d := StoreDraft{Name: "  Daraz "}.Normalize()
		assert.Equal(t, "Daraz", d.Name)
		assert.Equal(t, DefaultStoreColor, d.Color)
		assert.NoError(t, d.Validate())
	})

	t.Run("requires name", func(t *testing.T) {
		err := StoreDraft{}.Normalize().Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("rejects bad color", func(t *testing.T) {
		err := StoreDraft{Name: "Shop", Color: "blue"}.Normalize().Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hex")
	})
}

func TestCalculationDraft(t *testing.T) {
	d := CalculationDraft{
		StoreID:      "s1",
		ItemName:     "Kettle",
		SalePrice:    decimal.RequireFromString("1500.50"),
		CostPrice:    decimal.RequireFromString("1000.25"),
		DeliveryCost: decimal.RequireFromString("150"),
		OrderCount:   3,
	}
	require.NoError(t, d.Validate())

	calc := d.Calculate()
	assert.True(t, decimal.RequireFromString("350.25").Equal(calc.UnitProfit))
	assert.True(t, decimal.RequireFromString("1050.75").Equal(calc.TotalProfit))

	t.Run("negative profit is allowed", func(t *testing.T) {
		loss := d
		loss.SalePrice = decimal.NewFromInt(900)
		assert.True(t, loss.UnitProfit().IsNegative())
	})

	t.Run("rejects negative prices", func(t *testing.T) {
		bad := d
		bad.CostPrice = decimal.NewFromInt(-1)
		assert.Error(t, bad.Validate())
	})

	t.Run("requires store and item", func(t *testing.T) {
		assert.Error(t, CalculationDraft{ItemName: "x"}.Validate())
		assert.Error(t, CalculationDraft{StoreID: "s"}.Validate())
	})
}

func TestSummarize(t *testing.T) {
	stores := []Store{{ID: "a", Name: "A", Color: "#000000"}, {ID: "b", Name: "B"}}
	calcs := []Calculation{
		{StoreID: "a", OrderCount: 2, TotalProfit: decimal.RequireFromString("10.50")},
		{StoreID: "a", OrderCount: 3, TotalProfit: decimal.RequireFromString("4.50")},
		{StoreID: "ghost", OrderCount: 1, TotalProfit: decimal.NewFromInt(1)},
	}

	got := Summarize(stores, calcs)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Calculations)
	assert.Equal(t, 5, got[0].TotalOrders)
	assert.True(t, decimal.NewFromInt(15).Equal(got[0].TotalProfit))
	assert.Zero(t, got[1].TotalOrders)
	assert.True(t, got[1].TotalProfit.IsZero())
	assert.Equal(t, "ghost", got[2].StoreName)
}
