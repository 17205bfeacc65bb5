package orderapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
)

// orderPayload is an order as the remote API encodes it. Document stores
// send "_id"; some deployments send "id".
type orderPayload struct {
	ID           string     `json:"id,omitempty"`
	MongoID      string     `json:"_id,omitempty"`
	SerialNumber string     `json:"serialNumber"`
	Owner        string     `json:"owner"`
	OrderDate    string     `json:"orderDate"`
	Status       string     `json:"status"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

func (p orderPayload) toDomain() order.Order {
	o := order.Order{
		ID:           p.ID,
		SerialNumber: p.SerialNumber,
		Owner:        p.Owner,
		OrderDate:    order.NormalizeDate(p.OrderDate),
		Status:       order.Status(p.Status).Normalize(),
	}
	if o.ID == "" {
		o.ID = p.MongoID
	}
	if p.CreatedAt != nil {
		o.CreatedAt = *p.CreatedAt
	}
	return o
}

// orderWrite is the body of create and full update.
type orderWrite struct {
	SerialNumber string       `json:"serialNumber"`
	Owner        string       `json:"owner"`
	OrderDate    string       `json:"orderDate"`
	Status       order.Status `json:"status"`
}

func writeFromDraft(d order.Draft) orderWrite {
	return orderWrite{
		SerialNumber: d.SerialNumber,
		Owner:        d.Owner,
		OrderDate:    d.OrderDate,
		Status:       d.Status,
	}
}

// OrderGateway implements order.Gateway over the remote /api/orders endpoints.
type OrderGateway struct {
	client *Client
}

// NewOrderGateway creates an OrderGateway.
func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

var _ order.Gateway = (*OrderGateway)(nil)

// List fetches all orders, or only those of owner when it is non-empty.
func (g *OrderGateway) List(ctx context.Context, owner string) ([]order.Order, error) {
	var payload []orderPayload
	err := g.client.do(ctx, call{
		operation: "orders.list",
		method:    http.MethodGet,
		path:      "/api/orders",
		query:     map[string]string{"owner": owner},
	}, &payload)
	if err != nil {
		return nil, err
	}
	orders := make([]order.Order, 0, len(payload))
	for _, p := range payload {
		orders = append(orders, p.toDomain())
	}
	return orders, nil
}

// Create posts a new order and returns the stored record.
func (g *OrderGateway) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	var payload orderPayload
	err := g.client.do(ctx, call{
		operation: "orders.create",
		method:    http.MethodPost,
		path:      "/api/orders",
		body:      writeFromDraft(draft),
	}, &payload)
	if err != nil {
		return order.Order{}, err
	}
	return payload.toDomain(), nil
}

// Update replaces the editable fields of an order.
func (g *OrderGateway) Update(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	var payload orderPayload
	err := g.client.do(ctx, call{
		operation: "orders.update",
		method:    http.MethodPut,
		path:      "/api/orders/" + url.PathEscape(id),
		body:      writeFromDraft(draft),
	}, &payload)
	if err != nil {
		return order.Order{}, err
	}
	return payload.toDomain(), nil
}

// UpdateStatus sends a partial update carrying only the status.
func (g *OrderGateway) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	var payload orderPayload
	err := g.client.do(ctx, call{
		operation: "orders.update_status",
		method:    http.MethodPut,
		path:      "/api/orders/" + url.PathEscape(id),
		body:      map[string]order.Status{"status": status},
	}, &payload)
	if err != nil {
		return order.Order{}, err
	}
	return payload.toDomain(), nil
}

// Delete removes one order.
func (g *OrderGateway) Delete(ctx context.Context, id string) error {
	return g.client.do(ctx, call{
		operation: "orders.delete",
		method:    http.MethodDelete,
		path:      "/api/orders/" + url.PathEscape(id),
	}, nil)
}

// BulkCreate creates one order per serial in a single request.
func (g *OrderGateway) BulkCreate(ctx context.Context, req order.BulkCreateRequest) (order.BulkCreateResult, error) {
	var result order.BulkCreateResult
	err := g.client.do(ctx, call{
		operation: "orders.bulk_create",
		method:    http.MethodPost,
		path:      "/api/orders/bulk",
		body:      req,
	}, &result)
	if err != nil {
		return order.BulkCreateResult{}, err
	}
	if result.SkippedSerials == nil {
		result.SkippedSerials = []string{}
	}
	return result, nil
}

// BulkStatus sets the status of every order whose serial is listed.
func (g *OrderGateway) BulkStatus(ctx context.Context, req order.BulkStatusRequest) (order.BulkStatusResult, error) {
	var result order.BulkStatusResult
	err := g.client.do(ctx, call{
		operation: "orders.bulk_status",
		method:    http.MethodPost,
		path:      "/api/orders/bulk-status",
		body:      req,
	}, &result)
	if err != nil {
		return order.BulkStatusResult{}, err
	}
	if result.NotFound == nil {
		result.NotFound = []string{}
	}
	return result, nil
}
