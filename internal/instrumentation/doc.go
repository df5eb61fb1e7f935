// Package instrumentation provides OpenTelemetry metrics and tracing for
// inboxpal.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: requests by method, normalized path and status
//   - http_request_duration_seconds
//
// Google:
//   - google_api_operations_total: Gmail calls by operation and status
//   - google_api_operation_duration_seconds
//   - oauth_auth_total: authorization code exchanges by result
//   - oauth_token_refresh_total: refresh outcomes (success, failure, expired)
//
// Language model:
//   - llm_requests_total and llm_request_duration_seconds by operation and model
//   - email_ranking_total: ranking runs, success or degraded
//   - transcription_audio_bytes
//
// MCP:
//   - mcp_tool_invocations_total and mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for HTTP handling (through otelhttp), tool invocations
// (tool.<name>), Gmail calls (google.gmail.<operation>) and model calls
// (llm.<operation>).
//
// # Configuration
//
// Instrumentation reads the following environment variables:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_METRIC_EXPORT_INTERVAL: milliseconds or a Go duration (default: 10s)
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: inboxpal)
//
// A nil *Metrics is a valid no-op recorder, so components can be built
// without a provider in tests.
package instrumentation
