// Package grpchost hosts a provider behind the RPC transport.
//
// The host binds an ephemeral local listener, serves the two-method
// ProviderHost interface over gRPC with a JSON codec, and emits exactly
// one handshake line on stdout once the listener is live. After the
// handshake, stdout is never written again; all diagnostics go to the
// side channel.
//
// A host only serves when launched by an orchestrator (detected through
// the PROVKIT_MAGIC_COOKIE and PROVKIT_PROTOCOL_VERSIONS environment
// variables) or when explicitly run standalone. Direct invocation by a
// human prints a warning and exits cleanly.
package grpchost
