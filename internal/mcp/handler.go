package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/logging"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/toolerr"
)

// toolFunc is the domain half of a tool: it returns the structured output
// and a one-line summary for the text content block.
type toolFunc[In, Out any] func(ctx context.Context, in In) (Out, string, error)

// addTool registers meta in the registry and fn with the MCP server,
// wrapping fn with request ids, metrics and error translation.
func addTool[In, Out any](s *Server, meta *ToolMetadata, fn toolFunc[In, Out]) error {
	if err := s.registry.Register(meta); err != nil {
		return err
	}
	name := meta.Name

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        name,
		Description: meta.Description,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
		ctx = logging.WithTool(ctx, name)

		start := time.Now()
		s.metrics.IncrementActive(ctx, name)
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, name)
			s.metrics.RecordInvocation(ctx, name, time.Since(start), toolErr)
		}()

		out, summary, err := fn(ctx, in)
		if err != nil {
			toolErr = err
			s.logFailure(ctx, err, time.Since(start))
			var zero Out
			return nil, zero, newToolFailure(err)
		}

		s.logger.Debug(ctx, "tool call succeeded", zap.Duration("duration", time.Since(start)))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: summary}},
		}, out, nil
	})
	return nil
}

func (s *Server) logFailure(ctx context.Context, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("kind", string(toolerr.KindOf(err))),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	}
	switch toolerr.KindOf(err) {
	case toolerr.KindRemoteUnavailable, toolerr.KindInternal:
		s.logger.Warn(ctx, "tool call failed", fields...)
	default:
		s.logger.Info(ctx, "tool call rejected", fields...)
	}
}

// toolFailure carries a tool error to the SDK, which reports Error() as
// the text of an isError result.
type toolFailure struct {
	cause error
	text  string
}

type failureBody struct {
	Error toolerr.Payload `json:"error"`
}

func newToolFailure(err error) *toolFailure {
	b, mErr := json.Marshal(failureBody{Error: toolerr.PayloadOf(err)})
	if mErr != nil {
		b = []byte(`{"error":{"kind":"INTERNAL","message":"unencodable error"}}`)
	}
	return &toolFailure{cause: err, text: string(b)}
}

func (f *toolFailure) Error() string { return f.text }

func (f *toolFailure) Unwrap() error { return f.cause }
