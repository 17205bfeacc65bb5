package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func pointsByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			v, _ := dp.Attributes.Value(key)
			out[v.AsString()] += dp.Value
		}
	case metricdata.Gauge[int64]:
		for _, dp := range data.DataPoints {
			v, _ := dp.Attributes.Value(key)
			out[v.AsString()] = dp.Value
		}
	default:
		t.Fatalf("unexpected data type %T for %s", m.Data, m.Name)
	}
	return out
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
}

func TestNewDBMetrics_DefaultsThreshold(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	defer provider.Shutdown(context.Background())

	m, err := NewDBMetrics(provider.Meter("test"), nil, DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.NotNil(t, m.logger)
	m.Stop()
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewDBMetrics(provider.Meter("test"), nil, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQuery(ctx, opSelect, "addresses", 5*time.Millisecond)
	m.RecordQuery(ctx, opInsert, "tickets", 500*time.Millisecond)
	m.RecordQuery(ctx, "", "", 300*time.Millisecond)

	metrics := collect(t, reader)
	assert.Equal(t, map[string]int64{opSelect: 1, opInsert: 1, opOther: 1},
		pointsByAttr(t, metrics["db_query_total"], AttrDBOperation))
	assert.Equal(t, map[string]int64{"tickets": 1, "unknown": 1},
		pointsByAttr(t, metrics["db_slow_query_total"], AttrDBTable))

	hist := metrics["db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	assert.Len(t, hist.DataPoints, 3)
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := setupTestDB(t)

	m, err := RegisterDBMetrics(db, nil, DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	disabledProvider, err := NewMeterProvider(context.Background(), MetricsConfig{}, nil)
	require.NoError(t, err)
	m, err = RegisterDBMetrics(db, disabledProvider, DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRegisterDBMetrics_RecordsGormQueries(t *testing.T) {
	db := setupTestDB(t)
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, nil)
	defer mp.Shutdown(context.Background())

	m, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Stop()

	require.NoError(t, db.Create(&noteModel{Body: "first"}).Error)
	var notes []noteModel
	require.NoError(t, db.Find(&notes).Error)
	require.NoError(t, db.Model(&noteModel{}).Where("id = ?", notes[0].ID).Update("body", "second").Error)
	require.NoError(t, db.Delete(&noteModel{}, notes[0].ID).Error)

	metrics := collect(t, reader)
	ops := pointsByAttr(t, metrics["db_query_total"], AttrDBOperation)
	assert.Equal(t, int64(1), ops[opInsert])
	assert.Equal(t, int64(1), ops[opSelect])
	assert.Equal(t, int64(1), ops[opUpdate])
	assert.Equal(t, int64(1), ops[opDelete])

	pool := pointsByAttr(t, metrics["db_pool_connections"], AttrDBState)
	assert.Contains(t, pool, "idle")
	assert.Contains(t, pool, "in_use")
	assert.Contains(t, pool, "open")

	maxConns := metrics["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.Len(t, maxConns.DataPoints, 1)
	assert.Equal(t, int64(1), maxConns.DataPoints[0].Value)
}

func TestDBMetrics_StopUnregistersPool(t *testing.T) {
	db := setupTestDB(t)
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, nil)
	defer mp.Shutdown(context.Background())

	m, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	m.Stop()
	m.Stop()

	metrics := collect(t, reader)
	if pool, ok := metrics["db_pool_connections"]; ok {
		assert.Empty(t, pool.Data.(metricdata.Gauge[int64]).DataPoints)
	}
}
