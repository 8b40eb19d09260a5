package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for all mailwright spans.
const TracerName = "github.com/teemow/mailwright"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrAccount   = "mcp.account"
	SpanAttrOperation = "mailwright.operation"
	SpanAttrModel     = "llm.model"
	SpanAttrDraft     = "compose.draft"
	SpanAttrStrategy  = "compose.strategy"
	SpanAttrMessageID = "gmail.message_id"
	SpanAttrCount     = "mailwright.count"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span. The caller must end it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartLLMSpan starts a client span for a chat completion request.
func StartLLMSpan(ctx context.Context, operation, model string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "llm."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrOperation, operation),
			attribute.String(SpanAttrModel, model),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartGmailSpan starts a client span for a Gmail API call.
func StartGmailSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String(SpanAttrOperation, operation)}, attrs...)
	return tracer().Start(ctx, "gmail."+operation,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// Status maps an error to StatusSuccess or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
