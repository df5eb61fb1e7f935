package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/logging"
)

// MetricsSource yields the tool metrics recorder. *server.ServerContext
// implements it.
type MetricsSource interface {
	Metrics() *instrumentation.Metrics
}

// InstrumentedToolHandler wraps a tool handler with a tool span, invocation
// metrics and a debug log line.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	src MetricsSource,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
		default:
			instrumentation.SetSpanSuccess(span)
		}

		var metrics *instrumentation.Metrics
		if src != nil {
			metrics = src.Metrics()
		}
		metrics.RecordToolInvocation(ctx, toolName, status, duration)

		slog.DebugContext(ctx, "tool invocation",
			logging.Tool(toolName),
			logging.Status(status),
			logging.Duration(duration),
			logging.Err(err),
		)
		return result, err
	}
}
