// Package version provides build version information embedding for
// provkit hosts.
//
// Version, git commit, and build time are set at compile time via
// -ldflags:
//
//	go build -ldflags "-X github.com/provkit/provkit/version.Version=1.0.0"
//
// The handshake line emitted by the RPC transport includes the core
// protocol version declared here.
package version
