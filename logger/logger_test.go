package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output stderr, got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfigValidateRejectsStdout(t *testing.T) {
	cfg := Config{Level: "info", Format: "json", Output: "stdout"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected stdout output to be rejected")
	}
}

func TestConfigValidateRejectsBadLevel(t *testing.T) {
	cfg := Config{Level: "loud", Format: "json", Output: "stderr"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid level to be rejected")
	}
}

func TestWriterLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "test")
	log.Info("hello", Fields("count", 3))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["component"] != "test" {
		t.Errorf("expected component field, got %v", line["component"])
	}
	if line["message"] != "hello" {
		t.Errorf("expected message hello, got %v", line["message"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "outer").WithComponent("inner")
	log.Info("x")
	if !strings.Contains(buf.String(), `"component":"inner"`) {
		t.Errorf("expected inner component tag, got %s", buf.String())
	}
}

func TestFieldsHelper(t *testing.T) {
	m := Fields("a", 1, "b", "two")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields map: %v", m)
	}
	// Odd trailing value is ignored.
	m = Fields("a", 1, "dangling")
	if len(m) != 1 {
		t.Errorf("expected dangling key ignored, got %v", m)
	}
}

func TestGetFallsBackToGlobal(t *testing.T) {
	l := Get("unregistered-component")
	if l == nil {
		t.Fatal("Get returned nil")
	}
}
