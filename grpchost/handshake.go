package grpchost

import (
	"fmt"
	"os"
	"strings"

	"github.com/provkit/provkit/version"
)

const (
	// ProtocolName identifies the RPC protocol in the handshake line.
	ProtocolName = "grpc"

	// AppProtocol is the application protocol version this host speaks.
	AppProtocol = 1

	// EnvMagicCookie must be set to MagicCookieValue by the launching
	// orchestrator. It only guards against accidental direct execution,
	// not against hostile callers.
	EnvMagicCookie = "PROVKIT_MAGIC_COOKIE"

	// MagicCookieValue is the expected value of EnvMagicCookie.
	MagicCookieValue = "a7f1c0de55e84b2f"

	// EnvProtocolVersions carries the comma-separated application
	// protocol versions the orchestrator supports.
	EnvProtocolVersions = "PROVKIT_PROTOCOL_VERSIONS"
)

// Handshake is the startup line an orchestrator parses to find the
// host's listener. It is written exactly once, as the first line on
// stdout, and stdout carries nothing else afterward.
type Handshake struct {
	CoreProtocol int
	AppProtocol  int
	Network      string
	Addr         string
	Protocol     string
}

// NewHandshake builds the handshake for a live tcp listener address.
func NewHandshake(addr string) Handshake {
	return Handshake{
		CoreProtocol: version.CoreProtocol,
		AppProtocol:  AppProtocol,
		Network:      "tcp",
		Addr:         addr,
		Protocol:     ProtocolName,
	}
}

// String renders the pipe-delimited handshake grammar.
func (h Handshake) String() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s",
		h.CoreProtocol, h.AppProtocol, h.Network, h.Addr, h.Protocol)
}

// Managed reports whether the process was launched by an orchestrator.
func Managed() bool {
	return os.Getenv(EnvMagicCookie) == MagicCookieValue &&
		os.Getenv(EnvProtocolVersions) != ""
}

// protocolSupported reports whether the orchestrator advertised support
// for this host's application protocol version. An empty advertisement
// counts as supported so standalone runs are unrestricted.
func protocolSupported() bool {
	raw := os.Getenv(EnvProtocolVersions)
	if raw == "" {
		return true
	}
	want := fmt.Sprintf("%d", AppProtocol)
	for _, v := range strings.Split(raw, ",") {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
