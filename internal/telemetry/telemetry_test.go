package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Healthy)
	assert.NotNil(t, tel.TracerProvider())
	assert.NotNil(t, tel.MeterProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "collector.example.com:4317"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure export")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "disabled skips checks", mutate: func(c *Config) { c.Enabled = false; c.Endpoint = "" }},
		{name: "local insecure ok", mutate: func(c *Config) { c.Enabled = true }},
		{name: "ipv6 loopback ok", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }},
		{name: "http scheme local ok", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "http://127.0.0.1:4318"; c.Protocol = ProtocolHTTP }},
		{name: "remote tls ok", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317"; c.Insecure = false }},
		{name: "remote insecure", mutate: func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, wantErr: true},
		{name: "bad protocol", mutate: func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, wantErr: true},
		{name: "bad rate", mutate: func(c *Config) { c.Enabled = true; c.SamplingRate = 2 }, wantErr: true},
		{name: "missing service", mutate: func(c *Config) { c.Enabled = true; c.ServiceName = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.TelemetryConfig{
		Enabled:         true,
		Endpoint:        "localhost:4318",
		Protocol:        ProtocolHTTP,
		Insecure:        true,
		SamplingRate:    0.5,
		MetricsInterval: config.Duration(time.Minute),
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "ghostwriter-mcp", cfg.ServiceName)
	assert.Equal(t, time.Minute, cfg.MetricInterval)
	assert.NoError(t, cfg.Validate())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.TracerProvider().Tracer("test").Start(ctx, "ghostwriter.search_clients")
	span.SetAttributes(attribute.String("graphql.operation", "search_clients"))
	span.End()

	counter, err := tt.MeterProvider().Meter("test").Int64Counter("calls")
	require.NoError(t, err)
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("k", "v")))
	counter.Add(ctx, 1)

	tt.AssertSpanAttribute(t, "ghostwriter.search_clients", "graphql.operation", "search_clients")
	assert.Equal(t, int64(3), tt.CounterTotal(t, "calls"))
	assert.Nil(t, tt.SpanByName("missing"))
}
