package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := NewZapOTELCore("storefront", nil, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "checkout"))

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "checkout", entry.ContextMap()["component"])
	}
}

func TestNewProfiler(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("disabled", func(t *testing.T) {
		p, err := NewProfiler(config.ProfilingConfig{SpanProfiles: true}, logger)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.False(t, p.SpanProfilesRequested())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("requires server address", func(t *testing.T) {
		_, err := NewProfiler(config.ProfilingConfig{Enabled: true, ApplicationName: "storefront"}, logger)
		assert.ErrorIs(t, err, ErrProfilerAddressRequired)
	})

	t.Run("requires application name", func(t *testing.T) {
		_, err := NewProfiler(config.ProfilingConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, logger)
		assert.ErrorIs(t, err, ErrProfilerAppNameRequired)
	})
}

func TestPipeline(t *testing.T) {
	t.Run("idle pipeline is a no-op", func(t *testing.T) {
		p := newPipeline("traces", nil)
		assert.False(t, p.running())
		assert.NoError(t, p.forceFlush(context.Background()))
		assert.NoError(t, p.stop(context.Background()))
	})

	t.Run("stop bounds the shutdown and wraps failures", func(t *testing.T) {
		p := newPipeline("metrics", zaptest.NewLogger(t))
		cause := errors.New("collector unreachable")
		var hadDeadline bool
		p.shutdown = func(ctx context.Context) error {
			_, hadDeadline = ctx.Deadline()
			return cause
		}

		err := p.stop(context.Background())
		assert.True(t, p.running())
		assert.True(t, hadDeadline)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "metrics pipeline")
	})
}
