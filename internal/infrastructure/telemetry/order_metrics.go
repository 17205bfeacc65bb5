package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Gateway operation names used as the operation attribute.
const (
	OpList         = "list"
	OpCreate       = "create"
	OpUpdate       = "update"
	OpUpdateStatus = "update_status"
	OpDelete       = "delete"
	OpBulkCreate   = "bulk_create"
	OpBulkStatus   = "bulk_status"
)

// OrderMetrics counts calls made to the remote order store.
type OrderMetrics struct {
	calls         *Counter
	ordersChanged *Counter
	duration      *Histogram
	batchSize     *Histogram
	logger        *zap.Logger
}

// NewOrderMetrics creates the order instruments on meter.
func NewOrderMetrics(meter metric.Meter, logger *zap.Logger) (*OrderMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &OrderMetrics{logger: logger}
	var err error
	if m.calls, err = NewCounter(meter, "order_gateway_calls_total", "Calls to the remote order store by operation and outcome", "{call}"); err != nil {
		return nil, err
	}
	if m.ordersChanged, err = NewCounter(meter, "orders_mutated_total", "Orders created, updated or deleted through the dashboard", "{order}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "order_gateway_duration_seconds",
		Description: "Remote order store call latency in seconds",
		Unit:        "s",
		Boundaries:  RemoteDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.batchSize, err = NewHistogram(meter, HistogramOpts{
		Name:        "order_bulk_batch_size",
		Description: "Serial numbers submitted per bulk request",
		Unit:        "{serial}",
		Boundaries:  BatchSizeBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCall records one gateway call. changed is the number of orders the
// call mutated.
func (m *OrderMetrics) RecordCall(ctx context.Context, operation, owner string, changed int, d time.Duration, err error) {
	outcome := Outcome(err)
	m.calls.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
	m.duration.RecordDuration(ctx, d, AttrOperation.String(operation))
	if changed > 0 {
		m.ordersChanged.Add(ctx, int64(changed), AttrOperation.String(operation), AttrOwner.String(ownerLabel(owner)))
	}
}

// RecordBatch records the size of a bulk request.
func (m *OrderMetrics) RecordBatch(ctx context.Context, operation string, size int) {
	m.batchSize.Record(ctx, float64(size), AttrOperation.String(operation))
}

// Outcome classifies err for the outcome attribute: "ok", the domain error
// code in lower case, or "error".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return strings.ToLower(domainErr.Code)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}

func ownerLabel(owner string) string {
	if owner == "" {
		return "unknown"
	}
	return owner
}

// instrumentedGateway traces and measures every call of the wrapped gateway.
type instrumentedGateway struct {
	inner   order.Gateway
	metrics *OrderMetrics
}

// InstrumentGateway wraps inner so each call opens an "order_gateway.<op>"
// span and, when m is non-nil, records call metrics.
func InstrumentGateway(inner order.Gateway, m *OrderMetrics) order.Gateway {
	return &instrumentedGateway{inner: inner, metrics: m}
}

func (g *instrumentedGateway) observe(ctx context.Context, op, owner string, changed int, start time.Time, err error) {
	if g.metrics != nil {
		g.metrics.RecordCall(ctx, op, owner, changed, time.Since(start), err)
	}
}

func (g *instrumentedGateway) List(ctx context.Context, owner string) ([]order.Order, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpList, WithAttribute(SpanAttrOwner, owner))
	defer span.End()
	start := time.Now()

	orders, err := g.inner.List(ctx, owner)
	g.observe(ctx, OpList, owner, 0, start, err)
	if err != nil {
		RecordError(span, err)
		return nil, err
	}
	SetAttributes(span, "orderdesk.rows", len(orders))
	SetOK(span)
	return orders, nil
}

func (g *instrumentedGateway) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpCreate,
		WithAttribute(SpanAttrOwner, draft.Owner),
		WithAttribute(SpanAttrSerial, draft.SerialNumber))
	defer span.End()
	start := time.Now()

	created, err := g.inner.Create(ctx, draft)
	g.observe(ctx, OpCreate, draft.Owner, changedCount(err), start, err)
	if err != nil {
		RecordError(span, err)
		return order.Order{}, err
	}
	SetAttributes(span, SpanAttrOrderID, created.ID)
	SetOK(span)
	return created, nil
}

func (g *instrumentedGateway) Update(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpUpdate,
		WithAttribute(SpanAttrOrderID, id),
		WithAttribute(SpanAttrOwner, draft.Owner))
	defer span.End()
	start := time.Now()

	updated, err := g.inner.Update(ctx, id, draft)
	g.observe(ctx, OpUpdate, draft.Owner, changedCount(err), start, err)
	if err != nil {
		RecordError(span, err)
		return order.Order{}, err
	}
	SetOK(span)
	return updated, nil
}

func (g *instrumentedGateway) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpUpdateStatus,
		WithAttribute(SpanAttrOrderID, id),
		WithAttribute(SpanAttrStatus, string(status)))
	defer span.End()
	start := time.Now()

	updated, err := g.inner.UpdateStatus(ctx, id, status)
	g.observe(ctx, OpUpdateStatus, updated.Owner, changedCount(err), start, err)
	if err != nil {
		RecordError(span, err)
		return order.Order{}, err
	}
	SetOK(span)
	return updated, nil
}

func (g *instrumentedGateway) Delete(ctx context.Context, id string) error {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpDelete, WithAttribute(SpanAttrOrderID, id))
	defer span.End()
	start := time.Now()

	err := g.inner.Delete(ctx, id)
	g.observe(ctx, OpDelete, "", changedCount(err), start, err)
	if err != nil {
		RecordError(span, err)
		return err
	}
	SetOK(span)
	return nil
}

func (g *instrumentedGateway) BulkCreate(ctx context.Context, req order.BulkCreateRequest) (order.BulkCreateResult, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpBulkCreate,
		WithAttribute(SpanAttrOwner, req.Owner),
		WithAttribute(SpanAttrBatchSize, len(req.SerialNumbers)))
	defer span.End()
	start := time.Now()
	if g.metrics != nil {
		g.metrics.RecordBatch(ctx, OpBulkCreate, len(req.SerialNumbers))
	}

	res, err := g.inner.BulkCreate(ctx, req)
	g.observe(ctx, OpBulkCreate, req.Owner, res.Created, start, err)
	if err != nil {
		RecordError(span, err)
		return order.BulkCreateResult{}, err
	}
	SetAttributes(span, "orderdesk.created", res.Created, "orderdesk.skipped", res.Skipped)
	SetOK(span)
	return res, nil
}

func (g *instrumentedGateway) BulkStatus(ctx context.Context, req order.BulkStatusRequest) (order.BulkStatusResult, error) {
	ctx, span := StartServiceSpan(ctx, "order_gateway", OpBulkStatus,
		WithAttribute(SpanAttrStatus, string(req.Status)),
		WithAttribute(SpanAttrBatchSize, len(req.SerialNumbers)))
	defer span.End()
	start := time.Now()
	if g.metrics != nil {
		g.metrics.RecordBatch(ctx, OpBulkStatus, len(req.SerialNumbers))
	}

	res, err := g.inner.BulkStatus(ctx, req)
	g.observe(ctx, OpBulkStatus, "", res.Updated, start, err)
	if err != nil {
		RecordError(span, err)
		return order.BulkStatusResult{}, err
	}
	SetAttributes(span, "orderdesk.updated", res.Updated, "orderdesk.not_found", len(res.NotFound))
	SetOK(span)
	return res, nil
}

func changedCount(err error) int {
	if err != nil {
		return 0
	}
	return 1
}
