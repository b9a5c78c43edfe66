// Package host is the top-level entry point wiring a provider into one
// of the two transports.
//
// Serve owns everything a provider binary needs at process level:
// host configuration from the environment, side-channel logger setup,
// a run identifier on every log line, interrupt handling, optional
// OpenTelemetry export, transport selection, and the mapping from
// failures to process exit codes. A provider main function is one
// Serve call.
package host
