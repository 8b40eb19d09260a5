package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrModel     = "model"
	attrTool      = "tool"
	attrAccount   = "account"
	attrStrategy  = "strategy"
	attrResult    = "result"
	attrKind      = "kind"
)

// Metrics records mailwright's metrics. The zero value is a no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram
	llmTokensTotal     metric.Int64Counter

	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	fixApplicationsTotal metric.Int64Counter
	activeDrafts         metric.Int64UpDownCounter

	cacheLookupsTotal metric.Int64Counter
	spamDeletedTotal  metric.Int64Counter

	detailedLabels bool
}

var (
	fastBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}
	slowBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}
)

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.llmRequestsTotal, "llm_requests_total", "Total number of LLM chat completion requests", "{request}"},
		{&m.llmTokensTotal, "llm_tokens_total", "Tokens consumed by LLM requests", "{token}"},
		{&m.gmailOperationsTotal, "gmail_api_operations_total", "Total number of Gmail API operations", "{operation}"},
		{&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"},
		{&m.fixApplicationsTotal, "compose_fix_applications_total", "Suggestion fixes applied to drafts by strategy", "{fix}"},
		{&m.cacheLookupsTotal, "triage_cache_lookups_total", "Inbox analysis cache lookups by result", "{lookup}"},
		{&m.spamDeletedTotal, "triage_spam_deleted_total", "Messages deleted as spam", "{message}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}

	histograms := []struct {
		dst     *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds", fastBuckets},
		{&m.llmRequestDuration, "llm_request_duration_seconds", "LLM request duration in seconds", slowBuckets},
		{&m.gmailOperationDuration, "gmail_api_operation_duration_seconds", "Gmail API operation duration in seconds", slowBuckets},
		{&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds", slowBuckets},
	}
	for _, h := range histograms {
		hist, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.dst = hist
	}

	var err error
	m.activeDrafts, err = meter.Int64UpDownCounter(
		"compose_active_drafts",
		metric.WithDescription("Number of open compose drafts"),
		metric.WithUnit("{draft}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compose_active_drafts gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMRequest records one chat completion call. operation is the
// writing or inbox operation that issued it (check_grammar, analyze_inbox...).
func (m *Metrics) RecordLLMRequest(ctx context.Context, operation, model, status string, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	)
	m.llmRequestsTotal.Add(ctx, 1, attrs)
	m.llmRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMTokens records prompt and completion token usage.
func (m *Metrics) RecordLLMTokens(ctx context.Context, operation string, prompt, completion int) {
	if m == nil || m.llmTokensTotal == nil {
		return
	}
	m.llmTokensTotal.Add(ctx, int64(prompt), metric.WithAttributes(
		attribute.String(attrOperation, operation), attribute.String(attrKind, "prompt")))
	m.llmTokensTotal.Add(ctx, int64(completion), metric.WithAttributes(
		attribute.String(attrOperation, operation), attribute.String(attrKind, "completion")))
}

// RecordGmailOperation records a Gmail API call.
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.gmailOperationsTotal.Add(ctx, 1, attrs)
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation. account is only
// attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		kv = append(kv, attribute.String(attrAccount, account))
	}
	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFixApplication records a suggestion fix. strategy is the replacement
// strategy that located the fragment, or FixNotFound.
func (m *Metrics) RecordFixApplication(ctx context.Context, strategy string) {
	if m == nil || m.fixApplicationsTotal == nil {
		return
	}
	result := StatusSuccess
	if strategy == FixNotFound {
		result = FixNotFound
	}
	m.fixApplicationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStrategy, strategy),
		attribute.String(attrResult, result),
	))
}

// DraftOpened and DraftClosed track the number of open drafts.
func (m *Metrics) DraftOpened(ctx context.Context) {
	if m == nil || m.activeDrafts == nil {
		return
	}
	m.activeDrafts.Add(ctx, 1)
}

func (m *Metrics) DraftClosed(ctx context.Context) {
	if m == nil || m.activeDrafts == nil {
		return
	}
	m.activeDrafts.Add(ctx, -1)
}

// RecordCacheLookup records an inbox analysis cache lookup: CacheHit,
// CacheMiss or CacheStale.
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil || m.cacheLookupsTotal == nil {
		return
	}
	m.cacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

func (m *Metrics) RecordSpamDeleted(ctx context.Context) {
	if m == nil || m.spamDeletedTotal == nil {
		return
	}
	m.spamDeletedTotal.Add(ctx, 1)
}
