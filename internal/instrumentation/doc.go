// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for textcal.
//
// # Metrics
//
// Plan metrics:
//   - plan_requests_total: Counter of plan requests by status
//   - plan_operations_total: Counter of executed operations by action and status
//   - mirror_sync_failures_total: Counter of local mirror writes that failed
//
// Remote calendar metrics:
//   - remote_calendar_operations_total: Counter of remote API calls by operation and status
//   - remote_calendar_operation_duration_seconds: Histogram of remote API call durations
//
// Language model metrics:
//   - llm_requests_total: Counter of translation requests by status
//   - llm_request_duration_seconds: Histogram of translation request durations
//
// Surface metrics:
//   - http_requests_total / http_request_duration_seconds
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for plan requests (plan.apply), translation
// (llm.translate) and remote calendar calls (calendar.<operation>).
//
// # Configuration
//
// DefaultConfig reads the environment:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP collector endpoint
//   - OTEL_SERVICE_NAME: Service name (default: textcal)
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (default: 0.1)
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package instrumentation
