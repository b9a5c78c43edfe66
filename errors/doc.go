// Package errors provides the error taxonomy for provider hosts.
//
// Failures at the orchestrator boundary fall into a small set of
// categories, each with a machine-readable code and a process exit
// code. Hosts never print errors to stdout; the structured error
// reaches the peer either as an exit status (stdio transport) or as
// a lifecycle Result (both transports).
package errors
