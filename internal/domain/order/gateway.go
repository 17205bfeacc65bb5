package order

import "context"

// BulkCreateRequest creates one order per serial number with shared fields.
type BulkCreateRequest struct {
	SerialNumbers []string `json:"serialNumbers"`
	Owner         string   `json:"owner"`
	OrderDate     string   `json:"orderDate"`
	Status        Status   `json:"status"`
}

// BulkCreateResult reports what the remote store did with a bulk create.
type BulkCreateResult struct {
	Created        int      `json:"created"`
	Skipped        int      `json:"skipped"`
	SkippedSerials []string `json:"skippedSerials"`
}

// BulkStatusRequest sets the status of every order with a listed serial.
type BulkStatusRequest struct {
	SerialNumbers []string `json:"serialNumbers"`
	Status        Status   `json:"status"`
}

// BulkStatusResult reports what the remote store did with a bulk status update.
type BulkStatusResult struct {
	Updated  int      `json:"updated"`
	NotFound []string `json:"notFound"`
}

// Gateway is the remote order store.
type Gateway interface {
	List(ctx context.Context, owner string) ([]Order, error)
	Create(ctx context.Context, draft Draft) (Order, error)
	Update(ctx context.Context, id string, draft Draft) (Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Order, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, req BulkCreateRequest) (BulkCreateResult, error)
	BulkStatus(ctx context.Context, req BulkStatusRequest) (BulkStatusResult, error)
}
