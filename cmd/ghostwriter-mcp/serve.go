package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
	httpserver "github.com/fyrsmithlabs/ghostwriter-mcp/internal/http"
	gwmcp "github.com/fyrsmithlabs/ghostwriter-mcp/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server until interrupted.

The stdio transport (default) is what desktop MCP clients launch. The http
transport serves streamable HTTP on /mcp with /health and /metrics alongside.

Examples:
  # Launched by an MCP client
  ghostwriter-mcp serve

  # Shared HTTP endpoint with a bearer token
  HTTP_AUTH_TOKEN=changeme ghostwriter-mcp serve --transport http`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadWithFile(configPath)
			if err != nil {
				return err
			}
			if transport != "" {
				cfg.Transport.Mode = transport
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
			}
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "", `transport to serve: "stdio" or "http" (overrides transport.mode)`)
	return cmd
}

// runServe wires the services and blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close(context.WithoutCancel(ctx))
	}()

	a.logger.Info(ctx, "starting ghostwriter-mcp",
		zap.String("version", version),
		zap.String("transport", cfg.Transport.Mode),
		zap.String("ghostwriter_url", cfg.Ghostwriter.URL),
		zap.String("codename_source", cfg.Codename.Source),
		zap.Int("codename_max_attempts", cfg.Codename.MaxAttempts),
	)

	srv, err := gwmcp.NewServer(&gwmcp.Config{
		Name:          "ghostwriter-mcp",
		Version:       version,
		Logger:        a.logger,
		MeterProvider: a.telemetry.MeterProvider(),
	}, a.services)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	switch cfg.Transport.Mode {
	case config.TransportHTTP:
		bridge, err := httpserver.NewServer(srv.Handler(), a.logger, &httpserver.Config{
			Host:            cfg.HTTP.Host,
			Port:            cfg.HTTP.Port,
			AuthToken:       cfg.HTTP.AuthToken.Value(),
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout.Duration(),
		},
			httpserver.WithGatherer(a.registry),
			httpserver.WithMeterProvider(a.telemetry.MeterProvider()),
			httpserver.WithTelemetry(a.telemetry),
			httpserver.WithVersion(version),
		)
		if err != nil {
			return fmt.Errorf("failed to create http server: %w", err)
		}
		if !cfg.HTTP.AuthToken.IsSet() {
			a.logger.Warn(ctx, "http transport has no auth token; /mcp is open to anyone who can reach it",
				zap.String("host", cfg.HTTP.Host))
		}
		return bridge.Start(ctx)
	default:
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		a.logger.Info(ctx, "mcp server stopped")
		return nil
	}
}
