// Package server holds the state shared by the MCP tools and the HTTP
// plumbing around them.
//
// ServerContext owns the configuration, the local store, the OpenAI
// client, the open compose drafts and the triage service. Gmail clients are
// created lazily per account and cached.
//
// HTTPServer serves the streamable HTTP transport at /mcp together with the
// Kubernetes style health endpoints (/healthz, /readyz, /healthz/detailed).
// MetricsServer exposes Prometheus metrics on a separate port.
package server
