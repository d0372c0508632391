package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/findings"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/resolver"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

var today = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type harness struct {
	fake      *ghostwriter.Fake
	server    *Server
	session   *mcp.ClientSession
	codenames *codename.Generator
	reader    *sdkmetric.ManualReader
	logs      *logging.TestLogger
}

func newServices(t *testing.T, fake *ghostwriter.Fake) (Services, *codename.Generator) {
	t.Helper()
	gen, err := codename.New(resolver.NewCodenameIndex(fake), config.CodenameConfig{})
	require.NoError(t, err)
	res, err := resolver.New(fake, gen, resolver.Config{}, resolver.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	mgr, err := findings.NewManager(fake, res, logging.NewNop())
	require.NoError(t, err)
	return Services{Directory: fake, Resolver: res, Codenames: gen, Findings: mgr}, gen
}

// newHarness connects an MCP client to a server backed by fake over
// in-memory transports.
func newHarness(t *testing.T, fake *ghostwriter.Fake) *harness {
	t.Helper()
	ctx := context.Background()

	svc, gen := newServices(t, fake)
	reader := sdkmetric.NewManualReader()
	logs := logging.NewTestLogger()

	srv, err := NewServer(&Config{
		Name:          "ghostwriter-mcp-test",
		Version:       "0.0.0",
		Logger:        logs.Logger,
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}, svc)
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err = srv.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return &harness{fake: fake, server: srv, session: session, codenames: gen, reader: reader, logs: logs}
}

func (h *harness) call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

// ok asserts a successful call and decodes its structured content.
func ok[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "unexpected tool error: %s", resultText(res))
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// failed asserts a tool error and decodes its JSON body.
func failed(t *testing.T, res *mcp.CallToolResult) toolerr.Payload {
	t.Helper()
	require.True(t, res.IsError, "expected a tool error")
	var body failureBody
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &body), "error text is not JSON: %s", resultText(res))
	return body.Error
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestNewServer(t *testing.T) {
	fake := ghostwriter.NewFake()
	svc, _ := newServices(t, fake)

	t.Run("successful creation", func(t *testing.T) {
		cfg := &Config{Name: "test-server", Version: "1.0.0", Logger: logging.NewNop()}
		server, err := NewServer(cfg, svc)
		require.NoError(t, err)
		require.NotNil(t, server.mcp)
		assert.Equal(t, 16, server.Registry().Count())
		require.NoError(t, server.Close())
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		server, err := NewServer(nil, svc)
		require.NoError(t, err)
		require.NotNil(t, server)
		require.NoError(t, server.Close())
		require.NoError(t, server.Close())
	})

	missing := []struct {
		name   string
		mutate func(*Services)
		want   string
	}{
		{"directory", func(s *Services) { s.Directory = nil }, "ghostwriter directory is required"},
		{"resolver", func(s *Services) { s.Resolver = nil }, "resolver is required"},
		{"codenames", func(s *Services) { s.Codenames = nil }, "codename generator is required"},
		{"findings", func(s *Services) { s.Findings = nil }, "finding manager is required"},
	}
	for _, tt := range missing {
		t.Run("missing "+tt.name, func(t *testing.T) {
			broken := svc
			tt.mutate(&broken)
			_, err := NewServer(DefaultConfig(), broken)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	// Nothing reaches Ghostwriter during construction.
	assert.Zero(t, fake.TotalCalls())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "ghostwriter-mcp", cfg.Name)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.NotNil(t, cfg.Logger)
}

func TestServer_ListTools(t *testing.T) {
	h := newHarness(t, ghostwriter.NewFake())

	res, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"create_or_find_client", "create_or_find_project", "create_or_find_report",
		"attach_finding", "update_finding", "generate_codename",
		"search_clients", "search_projects", "search_reports", "search_findings",
		"get_client", "get_project", "get_report", "list_report_findings",
		"explain_workflow", "tool_search",
	}, names)
	assert.ElementsMatch(t, names, h.server.Registry().ListNames())

	update, ok := h.server.Registry().Get("update_finding")
	require.True(t, ok)
	assert.Contains(t, update.Description, "empty list clears that field")
}
