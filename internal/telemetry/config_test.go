package telemetry

import (
	"testing"
	"time"

	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "specflow", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
	assert.True(t, cfg.Metrics.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate_DisabledSkipsChecks(t *testing.T) {
	cfg := &Config{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	enabled := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid enabled config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.Endpoint = "" },
			wantErr: "endpoint is required",
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantErr: "service_name is required",
		},
		{
			name:    "missing service version",
			mutate:  func(c *Config) { c.ServiceVersion = "" },
			wantErr: "service_version is required",
		},
		{
			name:    "unknown protocol",
			mutate:  func(c *Config) { c.Protocol = "thrift" },
			wantErr: "protocol must be",
		},
		{
			name: "insecure remote endpoint",
			mutate: func(c *Config) {
				c.Endpoint = "otel.example.com:4317"
				c.Insecure = true
			},
			wantErr: "insecure connections to remote endpoints",
		},
		{
			name: "secure remote endpoint allowed",
			mutate: func(c *Config) {
				c.Endpoint = "otel.example.com:4317"
				c.Insecure = false
			},
		},
		{
			name:    "sampling rate out of range",
			mutate:  func(c *Config) { c.Sampling.Rate = 1.5 },
			wantErr: "sampling.rate must be between",
		},
		{
			name: "zero export interval",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ExportInterval = 0
			},
			wantErr: "export_interval must be positive",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Shutdown.Timeout = 0 },
			wantErr: "shutdown.timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := enabled()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_IsLocalEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		local    bool
	}{
		{endpoint: "localhost:4317", local: true},
		{endpoint: "127.0.0.1:4317", local: true},
		{endpoint: "127.0.0.53:4317", local: true},
		{endpoint: "[::1]:4317", local: true},
		{endpoint: "otel.example.com:4317", local: false},
		{endpoint: "10.0.0.5:4317", local: false},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			cfg := &Config{Endpoint: tt.endpoint}
			assert.Equal(t, tt.local, cfg.isLocalEndpoint())
		})
	}
}

func TestConfig_ExportIntervalDuration(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.Metrics.ExportInterval.Duration())
	assert.Equal(t, config.Duration(5*time.Second), cfg.Shutdown.Timeout)
}
