package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSONFormat(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_ConsoleFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "console"
	cfg.Level = zapcore.DebugLevel

	logger, err := New(cfg, nil)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "logfmt"

	logger, err := New(cfg, nil)
	require.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNew_OTELOnlyWithoutProvider(t *testing.T) {
	// OTEL output configured but no provider supplied: no usable sink
	cfg := NewDefaultConfig()
	cfg.Output.Stdout = false
	cfg.Output.OTEL = true

	logger, err := New(cfg, nil)
	require.Error(t, err)
	assert.Nil(t, logger)
}

func TestSync_NopLogger(t *testing.T) {
	logger, _ := NewTestLogger()
	assert.NoError(t, Sync(logger))
}

func TestTestLogger_Observes(t *testing.T) {
	logger, logs := NewTestLogger()

	logger.Info("draft stage complete")
	logger.Warn("critique stage slow")

	AssertLogged(t, logs, zapcore.InfoLevel, "draft stage complete")
	AssertLogged(t, logs, zapcore.WarnLevel, "critique stage slow")
	assert.Equal(t, 2, logs.Len())
}
