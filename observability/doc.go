// Package observability provides OpenTelemetry tracing and metrics
// plumbing for provider hosts.
//
// Export is opt-in: unless an OTLP endpoint is configured
// (PROVKIT_TRACE_ENDPOINT), the global no-op providers stay in place
// and the helpers cost nothing. All exporters speak OTLP over HTTP;
// nothing here ever writes to stdout.
package observability
