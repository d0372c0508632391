// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug) for GraphQL payloads
//   - Console output on stderr, optionally teed to an OpenTelemetry log provider
//   - Automatic context fields (trace_id, span_id, request.id, session.id, tool)
//   - Encoder-level redaction of tokens and Authorization headers
//   - Level-aware sampling (errors never sampled)
//
// stdout is reserved for the stdio MCP transport, so nothing here writes to it.
//
// # Usage
//
//	cfg, err := logging.FromAppConfig(appCfg.Logging)
//	logger, err := logging.NewLogger(cfg, nil)
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, uuid.NewString())
//	logger.Info(ctx, "client resolved", zap.Int64("client_id", id))
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "created report", zap.String("title", "Q3"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "created report")
//	tl.AssertNoSecrets(t)
package logging
