package version

import (
	"strings"
	"testing"
)

func TestGetVersionInfoDefaults(t *testing.T) {
	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected dev version, got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev build must not report as release")
	}
}

func TestGetShortVersion(t *testing.T) {
	short := GetShortVersion()
	if !strings.HasPrefix(short, "dev") {
		t.Errorf("expected short version to start with 'dev', got %q", short)
	}
}

func TestCoreProtocolStable(t *testing.T) {
	// The orchestrator pins this value; bumping it is a breaking change.
	if CoreProtocol != 1 {
		t.Errorf("core protocol version changed: %d", CoreProtocol)
	}
}
