package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics, and
// audit logging. The booking outcome code of the result, if any, is
// recorded on the span and the audit line.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", instrumentation.BookingList, sc, handler))
func InstrumentedToolHandler(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		userEmail := GetUserEmailFromArgs(request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithService(instrumentation.ServiceCalcom).
				WithOperation(operation).
				WithUser(userEmail).
				Build()...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithService(instrumentation.ServiceCalcom, operation)
		if userEmail != "" {
			invocation.WithUser(userEmail)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		if code, ok := OutcomeCode(result); ok {
			invocation.WithOutcome(code.String())
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithOutcome(code.String()).Build()...)
		}

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.SetSpanErrorMessage(span, "tool returned an error result")
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocationWithUser(ctx, toolName, status, userEmail, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}

// OutcomeCode returns the booking outcome code carried by a tool result.
func OutcomeCode(result *mcp.CallToolResult) (outcome.Code, bool) {
	if result == nil {
		return outcome.CodeUnknown, false
	}
	switch o := result.StructuredContent.(type) {
	case outcome.Outcome:
		return o.Code, true
	case *outcome.Outcome:
		if o != nil {
			return o.Code, true
		}
	}
	return outcome.CodeUnknown, false
}
