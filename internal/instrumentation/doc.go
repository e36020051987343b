// Package instrumentation provides OpenTelemetry instrumentation for calbooker.
//
// The package wires up:
//   - OpenTelemetry metrics for HTTP requests, Cal.com calls, LLM completions, and tool invocations
//   - Distributed tracing for chat turns, tool calls, and provider requests
//   - Prometheus metrics export via /metrics on a dedicated port
//   - OTLP export for collectors
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of chat sessions held by the session store
//
// Provider Metrics:
//   - provider_api_operations_total: Counter of Cal.com requests by service, operation, status
//   - provider_api_operation_duration_seconds: Histogram of Cal.com request durations
//
// LLM Metrics:
//   - llm_completions_total: Counter of chat completions by model and status
//   - llm_completion_duration_seconds: Histogram of chat completion durations
//
// Booking Metrics:
//   - booking_outcomes_total: Counter of orchestrator outcomes by operation and code
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Cal.com requests (calcom.<operation>)
//   - LLM completions (llm.completion)
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: calbooker)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordProviderOperation(ctx, instrumentation.ServiceCalcom, instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
//	m.RecordToolInvocation(ctx, "create_a_cal_booking", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
