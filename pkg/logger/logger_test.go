package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		l, err := New("debug", "json")
		require.NoError(t, err)
		require.NotNil(t, l)
		l.Info("json logger ready")
		_ = l.Sync()
	})

	t.Run("ConsoleWithUnknownLevel", func(t *testing.T) {
		l, err := New("verbose", "console")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestKindField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Error("feed failed", KindField(KindTransient), ErrorField(errors.New("boom")))

	entries := logs.FilterField(zap.String(KindKey, string(KindTransient))).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestDebugContextSkipsCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	l.DebugContext(ctx, "visible")
	cancel()
	l.DebugContext(ctx, "hidden")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
}
