package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/log/global"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/findings"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/ghostwriter"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	gwmcp "github.com/fyrsmithlabs/ghostwriter-mcp/internal/mcp"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/resolver"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/telemetry"
)

// backend is everything the services need from Ghostwriter.
// *ghostwriter.Client and *ghostwriter.Fake implement it.
type backend interface {
	resolver.Backend
	findings.Backend
	gwmcp.Directory
	codename.Remote
}

// newBackend is replaced in tests.
var newBackend = func(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer, tel *telemetry.Telemetry) (backend, error) {
	client, err := ghostwriter.New(ghostwriter.Config{
		URL:           cfg.Ghostwriter.URL,
		Token:         cfg.Ghostwriter.APIToken.Value(),
		Timeout:       cfg.Ghostwriter.Timeout.Duration(),
		TLSSkipVerify: cfg.Ghostwriter.TLSSkipVerify,
		RateLimit:     cfg.Ghostwriter.RateLimit,
		Burst:         cfg.Ghostwriter.Burst,
		UserAgent:     "ghostwriter-mcp/" + version,
	},
		ghostwriter.WithLogger(logger),
		ghostwriter.WithRegisterer(reg),
		ghostwriter.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// app holds the wired services for one process.
type app struct {
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	registry  *prometheus.Registry
	codenames *codename.Generator
	services  gwmcp.Services
}

// newApp loads configuration and wires every service. Nothing contacts
// Ghostwriter until a tool is called.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	var logger *logging.Logger
	if tel.IsEnabled() {
		logger, err = logging.NewLogger(logCfg, global.GetLoggerProvider())
	} else {
		logger, err = logging.NewLogger(logCfg, nil)
	}
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	be, err := newBackend(cfg, logger, reg, tel)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create ghostwriter client: %w", err)
	}

	gen, err := codename.New(resolver.NewCodenameIndex(be), cfg.Codename,
		codename.WithRemote(be),
		codename.WithLogger(logger),
		codename.WithRegisterer(reg),
	)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create codename generator: %w", err)
	}

	res, err := resolver.New(be, gen, resolver.Config{
		DefaultProjectType: cfg.Ghostwriter.DefaultProjectType,
		ProjectDuration:    cfg.Ghostwriter.ProjectDuration.Duration(),
	},
		resolver.WithLogger(logger),
		resolver.WithRegisterer(reg),
	)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	mgr, err := findings.NewManager(be, res, logger)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create finding manager: %w", err)
	}

	return &app{
		logger:    logger,
		telemetry: tel,
		registry:  reg,
		codenames: gen,
		services: gwmcp.Services{
			Directory: be,
			Resolver:  res,
			Codenames: gen,
			Findings:  mgr,
		},
	}, nil
}

// Close flushes telemetry and the logger.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.logger.Sync(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
