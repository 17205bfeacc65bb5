package telemetry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/orderdesk/backend/internal/domain/order"
	"github.com/orderdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

// stubGateway answers every call from its fields.
type stubGateway struct {
	orders     []order.Order
	err        error
	bulkCreate order.BulkCreateResult
	bulkStatus order.BulkStatusResult
	sawSpan    bool
}

func (g *stubGateway) note(ctx context.Context) {
	g.sawSpan = trace.SpanFromContext(ctx).SpanContext().IsValid()
}

func (g *stubGateway) List(ctx context.Context, _ string) ([]order.Order, error) {
	g.note(ctx)
	return g.orders, g.err
}

func (g *stubGateway) Create(ctx context.Context, d order.Draft) (order.Order, error) {
	g.note(ctx)
	if g.err != nil {
		return order.Order{}, g.err
	}
	return order.Order{ID: "o-1", SerialNumber: d.SerialNumber, Owner: d.Owner, Status: d.Status}, nil
}

func (g *stubGateway) Update(ctx context.Context, id string, d order.Draft) (order.Order, error) {
	g.note(ctx)
	return order.Order{ID: id, Owner: d.Owner}, g.err
}

func (g *stubGateway) UpdateStatus(ctx context.Context, id string, s order.Status) (order.Order, error) {
	g.note(ctx)
	return order.Order{ID: id, Owner: "JUN", Status: s}, g.err
}

func (g *stubGateway) Delete(ctx context.Context, _ string) error {
	g.note(ctx)
	return g.err
}

func (g *stubGateway) BulkCreate(ctx context.Context, _ order.BulkCreateRequest) (order.BulkCreateResult, error) {
	g.note(ctx)
	return g.bulkCreate, g.err
}

func (g *stubGateway) BulkStatus(ctx context.Context, _ order.BulkStatusRequest) (order.BulkStatusResult, error) {
	g.note(ctx)
	return g.bulkStatus, g.err
}

func newTestOrderMetrics(t *testing.T) (*OrderMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewOrderMetrics(provider.Meter("test"), nil)
	require.NoError(t, err)
	return m, reader
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "upstream_unavailable", Outcome(fmt.Errorf("list: %w", shared.ErrUpstreamDown)))
	assert.Equal(t, "not_found", Outcome(shared.ErrNotFound))
	assert.Equal(t, "canceled", Outcome(context.Canceled))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestInstrumentGateway_Create(t *testing.T) {
	sr := setupGlobalRecorder(t)
	m, reader := newTestOrderMetrics(t)
	inner := &stubGateway{}
	gw := InstrumentGateway(inner, m)

	created, err := gw.Create(context.Background(), order.Draft{SerialNumber: "SN-1", Owner: "JUN", Status: order.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, "o-1", created.ID)
	assert.True(t, inner.sawSpan)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order_gateway.create", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	attrs := attrsOf(spans[0])
	assert.Equal(t, "SN-1", attrs[SpanAttrSerial].AsString())
	assert.Equal(t, "o-1", attrs[SpanAttrOrderID].AsString())

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{"ok": 1}, pointsByAttr(t, metrics["order_gateway_calls_total"], AttrOutcome))
	assert.Equal(t, map[string]int64{"JUN": 1}, pointsByAttr(t, metrics["orders_mutated_total"], AttrOwner))
}

func TestInstrumentGateway_ErrorMarksSpan(t *testing.T) {
	sr := setupGlobalRecorder(t)
	m, reader := newTestOrderMetrics(t)
	gw := InstrumentGateway(&stubGateway{err: shared.ErrUpstreamDown}, m)

	_, err := gw.List(context.Background(), "JUN")
	require.ErrorIs(t, err, shared.ErrUpstreamDown)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order_gateway.list", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{"upstream_unavailable": 1},
		pointsByAttr(t, metrics["order_gateway_calls_total"], AttrOutcome))
	_, mutated := metrics["orders_mutated_total"]
	assert.False(t, mutated)
}

func TestInstrumentGateway_BulkRecordsBatchAndChanges(t *testing.T) {
	setupGlobalRecorder(t)
	m, reader := newTestOrderMetrics(t)
	gw := InstrumentGateway(&stubGateway{
		bulkCreate: order.BulkCreateResult{Created: 2, Skipped: 1, SkippedSerials: []string{"S3"}},
		bulkStatus: order.BulkStatusResult{Updated: 3},
	}, m)

	ctx := context.Background()
	_, err := gw.BulkCreate(ctx, order.BulkCreateRequest{SerialNumbers: []string{"S1", "S2", "S3"}, Owner: "JUN"})
	require.NoError(t, err)
	_, err = gw.BulkStatus(ctx, order.BulkStatusRequest{SerialNumbers: []string{"S1", "S2", "S3"}, Status: order.StatusDelivered})
	require.NoError(t, err)

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{OpBulkCreate: 2, OpBulkStatus: 3},
		pointsByAttr(t, metrics["orders_mutated_total"], AttrOperation))

	hist := metrics["order_bulk_batch_size"].Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 2)
	for _, dp := range hist.DataPoints {
		assert.Equal(t, 3.0, dp.Sum)
	}
}

func TestInstrumentGateway_NilMetrics(t *testing.T) {
	sr := setupGlobalRecorder(t)
	gw := InstrumentGateway(&stubGateway{}, nil)

	require.NoError(t, gw.Delete(context.Background(), "o-1"))
	_, err := gw.UpdateStatus(context.Background(), "o-1", order.StatusCancelled)
	require.NoError(t, err)

	names := []string{}
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"order_gateway.delete", "order_gateway.update_status"}, names)
}
