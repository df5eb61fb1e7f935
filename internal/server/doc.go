// Package server exposes the assistant over HTTP.
//
// API registers the JSON routes used by the voice frontend: the Google
// OAuth login and callback, the Gmail unread, recent and ranked listings,
// summarization, command classification and audio transcription. Every
// Gmail route takes the caller's credentials in the request body and
// returns new_token when the access token was refreshed along the way.
//
// Errors are written as {"detail": "..."} with the status of their
// apperr kind. The handler chain adds otelhttp tracing, CORS for the
// frontend origin, request ids, panic recovery and per-route metrics.
//
// HealthChecker serves /healthz, /readyz and /api/health. MetricsServer
// serves Prometheus metrics on a separate listener.
//
// ServerContext carries the process-wide assistant service shared by the
// HTTP API and the MCP tools. It holds no per-user state.
package server
