package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_AssertLogged(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "phase completed", zap.String("phase", "plan"))

	tl.AssertLogged(t, zapcore.InfoLevel, "phase completed")
	tl.AssertField(t, "phase completed", "phase", "plan")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "phase completed")
}

func TestTestLogger_Reset(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "first")
	require.Len(t, tl.All(), 1)

	tl.Reset()
	assert.Empty(t, tl.All())
}

func TestTestLogger_FilterMessage(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "alpha")
	tl.Info(context.Background(), "beta")

	assert.Equal(t, 1, tl.FilterMessage("alpha").Len())
}
