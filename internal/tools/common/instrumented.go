package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mailwright/internal/instrumentation"
	"github.com/teemow/mailwright/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, false, sc, handler)
}

// InstrumentedDestructiveToolHandler is like InstrumentedToolHandler for
// tools that change mailbox state. Their audit records are always logged.
func InstrumentedDestructiveToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, true, sc, handler)
}

func instrumented(toolName string, destructive bool, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			attribute.String(instrumentation.SpanAttrAccount, account))
		invocation := instrumentation.NewToolInvocation(ctx, toolName).
			WithAccount(account).
			WithDestructive(destructive)
		start := time.Now()

		result, err := handler(ctx, request)

		outcome := err
		if outcome == nil && result != nil && result.IsError {
			outcome = errors.New(resultText(result))
		}
		instrumentation.EndSpan(span, outcome)
		invocation.Complete(outcome)

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), account, time.Since(start))
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return "tool returned an error"
}
