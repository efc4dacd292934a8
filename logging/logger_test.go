package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format, OutputPaths: []string{"stderr"}})
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerFromCore(core).Named("batch").With(String("run", "abc"))
	l.Debug("hidden")
	l.Warn("rows failed", Int("errors", 3), Int64("rows", 10), Float64("rate", 0.3),
		Bool("cancelled", false), Duration("elapsed", time.Second), Err(errors.New("boom")), Any("ids", []int{1, 2}))
	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "rows failed", e.Message)
	assert.Equal(t, "batch", e.LoggerName)
	ctx := e.ContextMap()
	assert.Equal(t, "abc", ctx["run"])
	assert.Equal(t, int64(3), ctx["errors"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, time.Second, ctx["elapsed"])
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("k", "v")).Named("x"))
	assert.NoError(t, l.Sync())
}
