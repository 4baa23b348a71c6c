package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogger(t *testing.T) {
	lg := Logger("DEBUG")
	require.True(t, lg.Core().Enabled(zapcore.DebugLevel))

	lg = Logger("warn")
	require.False(t, lg.Core().Enabled(zapcore.InfoLevel))

	require.Panics(t, func() { Logger("loud") })
}

func TestShutdown(t *testing.T) {
	var called bool
	Shutdown(zap.NewNop(), "test", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		require.True(t, ok)
		called = true
		return errors.New("ignored")
	})
	require.True(t, called)
}
