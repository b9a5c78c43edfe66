package config

import (
	"testing"
	"time"
)

func TestLoadHostConfigDefaults(t *testing.T) {
	cfg, err := LoadHostConfig()
	if err != nil {
		t.Fatalf("LoadHostConfig failed: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info level, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("expected stderr output, got %q", cfg.Logging.Output)
	}
	if cfg.GracefulTimeout != 10*time.Second {
		t.Errorf("expected 10s graceful timeout, got %v", cfg.GracefulTimeout)
	}
	if cfg.Trace.Endpoint != "" {
		t.Errorf("expected tracing disabled by default, got %q", cfg.Trace.Endpoint)
	}
}

func TestLoadHostConfigFromEnv(t *testing.T) {
	t.Setenv("PROVKIT_LOGGING_LEVEL", "debug")
	t.Setenv("PROVKIT_GRACEFUL_TIMEOUT", "3s")

	cfg, err := LoadHostConfig()
	if err != nil {
		t.Fatalf("LoadHostConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level from env, got %q", cfg.Logging.Level)
	}
	if cfg.GracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout from env, got %v", cfg.GracefulTimeout)
	}
}

func TestHostConfigValidateRejectsBadLevel(t *testing.T) {
	var cfg HostConfig
	cfg.ApplyDefaults()
	cfg.Logging.Level = "shouty"
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid level to fail validation")
	}
}
