package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewWithCore(core, level), logs
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"off":     LevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelRoundTrip(t *testing.T) {
	for _, l := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelSilent} {
		assert.Equal(t, l, fromZapLevel(toZapLevel(l)), l.String())
		parsed, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	assert.Equal(t, "level(42)", Level(42).String())
}

func TestLevelFiltering(t *testing.T) {
	l, logs := newObserved(LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")
	l.Log(LevelInfo, "hidden")
	l.Log(LevelError, "shown")
	assert.Equal(t, 3, logs.Len())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, l.GetLevel())
	l.Debug("now shown")
	assert.Equal(t, 4, logs.Len())

	l.SetLevel(LevelSilent)
	l.Error("muted")
	l.Log(LevelSilent, "muted")
	assert.Equal(t, 4, logs.Len())
}

func TestFields(t *testing.T) {
	l, logs := newObserved(LevelDebug)
	boom := errors.New("boom")

	l.With(String("component", "engine")).Info("step",
		Bool("ok", true),
		Duration("took", time.Millisecond),
		Float64("dt", 0.5),
		Int("bodies", 3),
		Int64("steps", 7),
		Uint64("digest", 9),
		Error(boom),
		Any("extra", []int{1}),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "step", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "engine", ctx["component"])
	assert.Equal(t, true, ctx["ok"])
	assert.Equal(t, time.Millisecond, ctx["took"])
	assert.Equal(t, 0.5, ctx["dt"])
	assert.Equal(t, int64(3), ctx["bodies"])
	assert.Equal(t, int64(7), ctx["steps"])
	assert.Equal(t, uint64(9), ctx["digest"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, []any{1}, ctx["extra"])
}

func TestWithSharesLevel(t *testing.T) {
	l, logs := newObserved(LevelInfo)
	child := l.With(String("k", "v"))

	l.SetLevel(LevelError)
	child.Info("hidden")
	assert.Zero(t, logs.Len())
	assert.Equal(t, LevelError, child.GetLevel())
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Error("nothing")
	assert.Equal(t, LevelSilent, l.GetLevel())
	assert.NotNil(t, l.Zap())
}
