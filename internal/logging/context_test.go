package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}

func TestContextFields_FullCorrelation(t *testing.T) {
	ctx := WithRunID(context.Background(), "run_abc123")
	ctx = WithFeature(ctx, "001-add-oauth2-login")
	ctx = WithPhase(ctx, "specify")

	fields := ContextFields(ctx)

	keys := make(map[string]string)
	for _, f := range fields {
		keys[f.Key] = f.String
	}
	assert.Equal(t, "run_abc123", keys["run.id"])
	assert.Equal(t, "001-add-oauth2-login", keys["feature.dir"])
	assert.Equal(t, "specify", keys["phase"])
}

func TestWithRunID_InvalidPanics(t *testing.T) {
	tests := []struct {
		name  string
		runID string
	}{
		{name: "empty", runID: ""},
		{name: "spaces", runID: "run 123"},
		{name: "path chars", runID: "run/../etc"},
		{name: "too long", runID: strings.Repeat("a", maxIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() {
				WithRunID(context.Background(), tt.runID)
			})
		})
	}
}

func TestWithFeature_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() {
		WithFeature(context.Background(), "001-auth/../escape")
	})
}

func TestWithPhase_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() {
		WithPhase(context.Background(), "")
	})
}

func TestFromContext_Fallback(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)

	// Nop logger must be safe to use
	logger.Info(context.Background(), "discarded")
}

func TestFromContext_RoundTrip(t *testing.T) {
	original := NewNop()
	ctx := WithLogger(context.Background(), original)

	got := FromContext(ctx)
	assert.Same(t, original, got)
}
