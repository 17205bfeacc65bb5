package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type noteModel struct {
	ID        uint   `gorm:"primaryKey"`
	Body      string `gorm:"size:100"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&noteModel{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupGlobalRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func clientSpans(sr *tracetest.SpanRecorder) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.SpanKind() == trace.SpanKindClient {
			out = append(out, s)
		}
	}
	return out
}

func attrsOf(span sdktrace.ReadOnlySpan) map[string]attribute.Value {
	out := map[string]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "sqlite", cfg.DBSystem)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
	assert.NotNil(t, plugin.logger)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	sr := setupGlobalRecorder(t)
	db := setupTestDB(t)

	require.NoError(t, NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()).Register(db))
	require.NoError(t, db.Create(&noteModel{Body: "a"}).Error)

	assert.Empty(t, clientSpans(sr))
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	sr := setupGlobalRecorder(t)
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&noteModel{Body: "a"}).Error)
	parent.End()

	spans := clientSpans(sr)
	require.NotEmpty(t, spans)

	span := spans[0]
	assert.Equal(t, parent.SpanContext().TraceID(), span.SpanContext().TraceID())
	attrs := attrsOf(span)
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
	assert.Equal(t, "note_models", attrs["db.sql.table"].AsString())
	assert.NotContains(t, attrs, "db.slow_query")
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	sr := setupGlobalRecorder(t)
	db := setupTestDB(t)

	cfg := DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond, DBSystem: "sqlite"}
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))

	var notes []noteModel
	require.NoError(t, db.WithContext(context.Background()).Find(&notes).Error)

	spans := clientSpans(sr)
	require.NotEmpty(t, spans)
	attrs := attrsOf(spans[0])
	assert.True(t, attrs["db.slow_query"].AsBool())

	var events []string
	for _, e := range spans[0].Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "slow_query_warning")
}

func TestDBTracingPlugin_NotFoundIsNotAnError(t *testing.T) {
	sr := setupGlobalRecorder(t)
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))

	var note noteModel
	err := db.WithContext(context.Background()).First(&note, 99).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	spans := clientSpans(sr)
	require.NotEmpty(t, spans)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM t":        opSelect,
		"  insert into t values": opInsert,
		"UPDATE t SET a=1":       opUpdate,
		"delete from t":          opDelete,
		"PRAGMA foreign_keys=ON": opOther,
		"":                       opOther,
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperationType(sql), sql)
	}
}
