// Package server provides the shared server context, the HTTP API, and the
// health and metrics endpoints of calbooker.
//
// # Key Components
//
// ServerContext carries the booking service, metrics, and audit logger to the
// MCP tool handlers.
//
// APIServer exposes the chat assistant over HTTP:
//   - POST /api/chat runs a chat turn
//   - GET /api/sessions lists stored conversations
//   - DELETE /api/sessions/{id} clears one conversation
//   - /mcp serves the booking tools over the streamable HTTP MCP transport
//
// HealthChecker serves /healthz, /readyz, /healthz/detailed, and /api/health.
// Readiness includes a ping of the session store.
//
// MetricsServer serves Prometheus metrics on a separate port.
//
// Requests pass through CORS and instrumentation middleware; the chat
// endpoint can additionally be rate limited per client IP.
package server
