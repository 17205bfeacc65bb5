package orderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/orderdesk/backend/internal/domain/profit"
	"github.com/shopspring/decimal"
)

type storePayload struct {
	ID        string     `json:"id,omitempty"`
	MongoID   string     `json:"_id,omitempty"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (p storePayload) toDomain() profit.Store {
	s := profit.Store{ID: p.ID, Name: p.Name, Color: p.Color}
	if s.ID == "" {
		s.ID = p.MongoID
	}
	if s.Color == "" {
		s.Color = profit.DefaultStoreColor
	}
	if p.CreatedAt != nil {
		s.CreatedAt = *p.CreatedAt
	}
	return s
}

type calculationPayload struct {
	ID           string          `json:"id,omitempty"`
	MongoID      string          `json:"_id,omitempty"`
	StoreID      string          `json:"storeId"`
	ItemName     string          `json:"itemName"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	OrderCount   int             `json:"orderCount"`
	UnitProfit   decimal.Decimal `json:"unitProfit"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
	CreatedAt    *time.Time      `json:"createdAt,omitempty"`
}

// calculationWrite sends money as JSON numbers rather than decimal strings.
type calculationWrite struct {
	StoreID      string      `json:"storeId"`
	ItemName     string      `json:"itemName"`
	SalePrice    json.Number `json:"salePrice"`
	CostPrice    json.Number `json:"costPrice"`
	DeliveryCost json.Number `json:"deliveryCost"`
	OrderCount   int         `json:"orderCount"`
	UnitProfit   json.Number `json:"unitProfit"`
	TotalProfit  json.Number `json:"totalProfit"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// toDomain recomputes the derived profit figures so stored records created
// by older clients still read consistently.
func (p calculationPayload) toDomain() profit.Calculation {
	c := profit.CalculationDraft{
		StoreID:      p.StoreID,
		ItemName:     p.ItemName,
		SalePrice:    p.SalePrice,
		CostPrice:    p.CostPrice,
		DeliveryCost: p.DeliveryCost,
		OrderCount:   p.OrderCount,
	}.Calculate()
	c.ID = p.ID
	if c.ID == "" {
		c.ID = p.MongoID
	}
	if p.CreatedAt != nil {
		c.CreatedAt = *p.CreatedAt
	}
	return c
}

// ProfitGateway implements profit.Gateway over the remote /api/profit endpoints.
type ProfitGateway struct {
	client *Client
}

// NewProfitGateway creates a ProfitGateway.
func NewProfitGateway(client *Client) *ProfitGateway {
	return &ProfitGateway{client: client}
}

var _ profit.Gateway = (*ProfitGateway)(nil)

func (g *ProfitGateway) ListStores(ctx context.Context) ([]profit.Store, error) {
	var payload []storePayload
	if err := g.client.do(ctx, call{
		operation: "profit.list_stores",
		method:    http.MethodGet,
		path:      "/api/profit/stores",
	}, &payload); err != nil {
		return nil, err
	}
	stores := make([]profit.Store, 0, len(payload))
	for _, p := range payload {
		stores = append(stores, p.toDomain())
	}
	return stores, nil
}

func (g *ProfitGateway) CreateStore(ctx context.Context, draft profit.StoreDraft) (profit.Store, error) {
	var payload storePayload
	if err := g.client.do(ctx, call{
		operation: "profit.create_store",
		method:    http.MethodPost,
		path:      "/api/profit/stores",
		body:      map[string]string{"name": draft.Name, "color": draft.Color},
	}, &payload); err != nil {
		return profit.Store{}, err
	}
	return payload.toDomain(), nil
}

func (g *ProfitGateway) DeleteStore(ctx context.Context, id string) error {
	return g.client.do(ctx, call{
		operation: "profit.delete_store",
		method:    http.MethodDelete,
		path:      "/api/profit/stores/" + url.PathEscape(id),
	}, nil)
}

// ListCalculations lists calculations, only those of storeID when non-empty.
func (g *ProfitGateway) ListCalculations(ctx context.Context, storeID string) ([]profit.Calculation, error) {
	var payload []calculationPayload
	if err := g.client.do(ctx, call{
		operation: "profit.list_calculations",
		method:    http.MethodGet,
		path:      "/api/profit/calculations",
		query:     map[string]string{"storeId": storeID},
	}, &payload); err != nil {
		return nil, err
	}
	calcs := make([]profit.Calculation, 0, len(payload))
	for _, p := range payload {
		calcs = append(calcs, p.toDomain())
	}
	return calcs, nil
}

func (g *ProfitGateway) CreateCalculation(ctx context.Context, calc profit.Calculation) (profit.Calculation, error) {
	body := calculationWrite{
		StoreID:      calc.StoreID,
		ItemName:     calc.ItemName,
		SalePrice:    number(calc.SalePrice),
		CostPrice:    number(calc.CostPrice),
		DeliveryCost: number(calc.DeliveryCost),
		OrderCount:   calc.OrderCount,
		UnitProfit:   number(calc.UnitProfit),
		TotalProfit:  number(calc.TotalProfit),
	}
	var payload calculationPayload
	if err := g.client.do(ctx, call{
		operation: "profit.create_calculation",
		method:    http.MethodPost,
		path:      "/api/profit/calculations",
		body:      body,
	}, &payload); err != nil {
		return profit.Calculation{}, err
	}
	return payload.toDomain(), nil
}

func (g *ProfitGateway) DeleteCalculation(ctx context.Context, id string) error {
	return g.client.do(ctx, call{
		operation: "profit.delete_calculation",
		method:    http.MethodDelete,
		path:      "/api/profit/calculations/" + url.PathEscape(id),
	}, nil)
}
