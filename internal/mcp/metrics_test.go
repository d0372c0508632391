package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordInvocation(t *testing.T) {
	reader := metric.NewManualReader()
	m := NewMetrics(metric.NewMeterProvider(metric.WithReader(reader)), nil)
	ctx := context.Background()

	m.RecordInvocation(ctx, "search_clients", 100*time.Millisecond, nil)
	m.RecordInvocation(ctx, "search_clients", 50*time.Millisecond, toolerr.InvalidPayload("search_clients", "query is required"))

	got := collect(t, reader)

	require.Contains(t, got, "ghostwriter_mcp.tool.invocations_total")
	assert.Equal(t, int64(2), sumInt64(t, got["ghostwriter_mcp.tool.invocations_total"]))
	assert.Contains(t, got, "ghostwriter_mcp.tool.duration_seconds")

	require.Contains(t, got, "ghostwriter_mcp.tool.errors_total")
	errs := got["ghostwriter_mcp.tool.errors_total"].Data.(metricdata.Sum[int64])
	require.Len(t, errs.DataPoints, 1)
	r, ok := errs.DataPoints[0].Attributes.Value("reason")
	require.True(t, ok)
	assert.Equal(t, "INVALID_PAYLOAD", r.AsString())
}

func TestMetrics_ActiveRequests(t *testing.T) {
	reader := metric.NewManualReader()
	m := NewMetrics(metric.NewMeterProvider(metric.WithReader(reader)), nil)
	ctx := context.Background()

	m.IncrementActive(ctx, "attach_finding")
	m.IncrementActive(ctx, "attach_finding")
	m.DecrementActive(ctx, "attach_finding")

	got := collect(t, reader)
	require.Contains(t, got, "ghostwriter_mcp.tool.active_requests")
	assert.Equal(t, int64(1), sumInt64(t, got["ghostwriter_mcp.tool.active_requests"]))
}

func TestReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"remote", toolerr.RemoteUnavailable("op", errors.New("dial tcp")), "REMOTE_UNAVAILABLE"},
		{"not found", toolerr.NotFound("op", "report", 4), "NOT_FOUND"},
		{"ambiguous", toolerr.AmbiguousMatch("op", "client", []int64{7, 9}), "AMBIGUOUS_MATCH"},
		{"exhausted", toolerr.CodenameExhausted("op", 10), "CODENAME_EXHAUSTED"},
		{"plain error", errors.New("something went wrong"), "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, reason(tt.err))
		})
	}
}
