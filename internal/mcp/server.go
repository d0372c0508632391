package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/findings"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/resolver"
)

// Directory is the read-only slice of the Ghostwriter API the search and
// lookup tools use.
type Directory interface {
	SearchClients(ctx context.Context, term string) ([]ghostwriter.ClientRecord, error)
	SearchProjects(ctx context.Context, term string) ([]ghostwriter.Project, error)
	SearchReports(ctx context.Context, term string) ([]ghostwriter.Report, error)
	SearchFindings(ctx context.Context, term string) ([]ghostwriter.Finding, error)

	GetClient(ctx context.Context, id int64) (ghostwriter.ClientRecord, error)
	GetProject(ctx context.Context, id int64) (ghostwriter.Project, error)
	GetReport(ctx context.Context, id int64) (ghostwriter.Report, error)
}

// Resolver finds or creates clients, projects and reports.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, req resolver.Request) (resolver.Resolution, error)
}

// CodenameGenerator allocates unused codenames.
type CodenameGenerator interface {
	Generate(ctx context.Context, req codename.Request) (string, error)
}

// FindingManager attaches findings to reports and edits attachments.
type FindingManager interface {
	Attach(ctx context.Context, reportID int64, spec findings.FindingSpec) (findings.Attachment, error)
	UpdateFields(ctx context.Context, req findings.UpdateRequest) (ghostwriter.ReportedFinding, error)
	ListReportFindings(ctx context.Context, reportID int64) ([]ghostwriter.ReportedFinding, error)
}

// Services are the collaborators the tools call into. All are required.
type Services struct {
	Directory Directory
	Resolver  Resolver
	Codenames CodenameGenerator
	Findings  FindingManager
}

// Config configures the MCP server.
type Config struct {
	Name    string
	Version string
	Logger  *logging.Logger

	// MeterProvider receives tool metrics. Nil means the global provider.
	MeterProvider metric.MeterProvider
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ghostwriter-mcp",
		Version: "1.0.0",
		Logger:  logging.NewNop(),
	}
}

// Server is the Ghostwriter MCP server.
type Server struct {
	mcp      *mcp.Server
	services Services
	registry *ToolRegistry
	metrics  *Metrics
	logger   *logging.Logger
}

// NewServer builds a server with every tool registered.
func NewServer(cfg *Config, svc Services) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	switch {
	case svc.Directory == nil:
		return nil, fmt.Errorf("ghostwriter directory is required")
	case svc.Resolver == nil:
		return nil, fmt.Errorf("resolver is required")
	case svc.Codenames == nil:
		return nil, fmt.Errorf("codename generator is required")
	case svc.Findings == nil:
		return nil, fmt.Errorf("finding manager is required")
	}

	logger := cfg.Logger.Named("mcp")
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, &mcp.ServerOptions{
			Instructions: serverInstructions,
		}),
		services: svc,
		registry: NewToolRegistry(),
		metrics:  NewMetrics(cfg.MeterProvider, logger),
		logger:   logger,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	logger.Info(context.Background(), "MCP server initialized",
		zap.String("name", cfg.Name),
		zap.String("version", cfg.Version),
		zap.Int("tools", s.registry.Count()),
	)
	return s, nil
}

func (s *Server) registerTools() error {
	for _, register := range []func() error{
		s.registerEntityTools,
		s.registerFindingTools,
		s.registerCodenameTools,
		s.registerSearchTools,
		s.registerWorkflowTools,
	} {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

// Run serves the MCP protocol over stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the MCP protocol over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

// Registry exposes the tool metadata index.
func (s *Server) Registry() *ToolRegistry {
	return s.registry
}

// Close releases server resources. The server holds no connections of its
// own, so Close is idempotent.
func (s *Server) Close() error {
	s.logger.Info(context.Background(), "closing MCP server")
	return nil
}
