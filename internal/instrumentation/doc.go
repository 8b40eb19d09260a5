// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for mailwright.
//
// Metrics:
//   - llm_requests_total, llm_request_duration_seconds, llm_tokens_total
//   - gmail_api_operations_total, gmail_api_operation_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//   - compose_fix_applications_total by replacement strategy, compose_active_drafts
//   - triage_cache_lookups_total by result, triage_spam_deleted_total
//   - http_requests_total, http_request_duration_seconds
//
// With the prometheus exporter the metrics are served from the provider's
// own registry through PrometheusHandler. OTLP and stdout exporters are
// available for metrics and traces.
//
// Configuration comes from the environment (see DefaultConfig):
//
//	INSTRUMENTATION_ENABLED=true
//	METRICS_EXPORTER=prometheus
//	TRACING_EXPORTER=none
//	OTEL_EXPORTER_OTLP_ENDPOINT=localhost:4318
//	OTEL_TRACES_SAMPLER_ARG=0.1
//
// A nil or zero Metrics value is safe to use and records nothing.
package instrumentation
