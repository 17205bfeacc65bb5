package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingProcessor keeps every emitted record in memory.
type recordingProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }
func (p *recordingProcessor) Shutdown(context.Context) error                        { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error                      { return nil }

var _ sdklog.Processor = (*recordingProcessor)(nil)

func (p *recordingProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := LogsConfig{Enabled: false, CollectorEndpoint: "localhost:4317", ServiceName: "orderdesk-test", Insecure: true}

	lp, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Equal(t, cfg, lp.GetConfig())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore(nil, "orderdesk", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestBridge_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, Bridge(base, nil, "orderdesk", zapcore.InfoLevel))
}

func TestBridge_TeesToProviderAboveLevel(t *testing.T) {
	processor := &recordingProcessor{}
	lp := NewLoggerProviderWithProcessor(processor, nil)
	defer lp.Shutdown(context.Background())

	core, logs := observer.New(zapcore.DebugLevel)
	bridged := Bridge(zap.New(core), lp, "orderdesk", zapcore.InfoLevel)

	bridged.Debug("debug only local")
	bridged.Info("refreshed view", zap.String("view", "ALL"))
	bridged.With(zap.String("user", "ops")).Warn("refetch failed")

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, []string{"refreshed view", "refetch failed"}, processor.bodies())
}
