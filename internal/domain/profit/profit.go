// Package profit models the per-store profit calculator. Stores and
// calculations are owned by the remote profit API; this package validates
// drafts and derives profit figures with decimal arithmetic.
package profit

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultStoreColor is used when a store is created without a color.
const DefaultStoreColor = "#3B82F6"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Store is a sales channel that calculations are grouped under.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// StoreDraft carries the fields of a new store.
type StoreDraft struct {
	Name  string
	Color string
}

// Normalize trims the name and applies the default color.
func (d StoreDraft) Normalize() StoreDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Color = strings.TrimSpace(d.Color)
	if d.Color == "" {
		d.Color = DefaultStoreColor
	}
	return d
}

// Validate checks a normalized store draft.
func (d StoreDraft) Validate() error {
	if d.Name == "" {
		return shared.NewDomainError("INVALID_STORE_NAME", "Store name is required")
	}
	if !hexColor.MatchString(d.Color) {
		return shared.NewDomainError("INVALID_COLOR", "Color must be a hex value like #3B82F6")
	}
	return nil
}

// Calculation is a saved profit calculation for one item in one store.
type Calculation struct {
	ID           string          `json:"id"`
	StoreID      string          `json:"storeId"`
	ItemName     string          `json:"itemName"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	OrderCount   int             `json:"orderCount"`
	UnitProfit   decimal.Decimal `json:"unitProfit"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
	CreatedAt    time.Time       `json:"createdAt,omitempty"`
}

// CalculationDraft carries the inputs of a new calculation.
type CalculationDraft struct {
	StoreID      string
	ItemName     string
	SalePrice    decimal.Decimal
	CostPrice    decimal.Decimal
	DeliveryCost decimal.Decimal
	OrderCount   int
}

// Validate checks the draft inputs.
func (d CalculationDraft) Validate() error {
	if strings.TrimSpace(d.StoreID) == "" {
		return shared.NewDomainError("INVALID_STORE", "Store is required")
	}
	if strings.TrimSpace(d.ItemName) == "" {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name is required")
	}
	if d.SalePrice.IsNegative() || d.CostPrice.IsNegative() || d.DeliveryCost.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	if d.OrderCount < 0 {
		return shared.NewDomainError("INVALID_ORDER_COUNT", "Order count cannot be negative")
	}
	return nil
}

// UnitProfit is sale price minus cost price minus delivery cost, 2 d.p.
func (d CalculationDraft) UnitProfit() decimal.Decimal {
	return d.SalePrice.Sub(d.CostPrice).Sub(d.DeliveryCost).Round(2)
}

// TotalProfit is the unit profit times the order count, 2 d.p.
func (d CalculationDraft) TotalProfit() decimal.Decimal {
	return d.UnitProfit().Mul(decimal.NewFromInt(int64(d.OrderCount))).Round(2)
}

// Calculate returns the calculation the draft describes, without an ID.
func (d CalculationDraft) Calculate() Calculation {
	return Calculation{
		StoreID:      strings.TrimSpace(d.StoreID),
		ItemName:     strings.TrimSpace(d.ItemName),
		SalePrice:    d.SalePrice.Round(2),
		CostPrice:    d.CostPrice.Round(2),
		DeliveryCost: d.DeliveryCost.Round(2),
		OrderCount:   d.OrderCount,
		UnitProfit:   d.UnitProfit(),
		TotalProfit:  d.TotalProfit(),
	}
}

// StoreSummary totals the calculations of one store.
type StoreSummary struct {
	StoreID      string          `json:"storeId"`
	StoreName    string          `json:"storeName"`
	Color        string          `json:"color"`
	Calculations int             `json:"calculations"`
	TotalOrders  int             `json:"totalOrders"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
}

// Summarize totals calculations per store, in store order. Calculations for
// unknown stores are grouped under their store ID.
func Summarize(stores []Store, calcs []Calculation) []StoreSummary {
	index := make(map[string]int, len(stores))
	out := make([]StoreSummary, 0, len(stores))
	for _, s := range stores {
		index[s.ID] = len(out)
		out = append(out, StoreSummary{StoreID: s.ID, StoreName: s.Name, Color: s.Color, TotalProfit: decimal.Zero})
	}
	for _, c := range calcs {
		i, ok := index[c.StoreID]
		if !ok {
			i = len(out)
			index[c.StoreID] = i
			out = append(out, StoreSummary{StoreID: c.StoreID, StoreName: c.StoreID, TotalProfit: decimal.Zero})
		}
		out[i].Calculations++
		out[i].TotalOrders += c.OrderCount
		out[i].TotalProfit = out[i].TotalProfit.Add(c.TotalProfit)
	}
	return out
}

// Gateway is the remote profit API.
type Gateway interface {
	ListStores(ctx context.Context) ([]Store, error)
	CreateStore(ctx context.Context, draft StoreDraft) (Store, error)
	DeleteStore(ctx context.Context, id string) error
	ListCalculations(ctx context.Context, storeID string) ([]Calculation, error)
	CreateCalculation(ctx context.Context, calc Calculation) (Calculation, error)
	DeleteCalculation(ctx context.Context, id string) error
}
