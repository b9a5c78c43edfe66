// Package config converts the opaque configuration payloads that
// arrive over a transport into typed provider configuration, and loads
// host-level settings from the environment.
//
// # Binding
//
// Bind accepts a parsed JSON document, raw JSON text, or a generic
// map, unwraps a "config" or "body" wrapper key when present, and
// decodes into the target struct with case-insensitive field matching.
// Unknown fields are ignored; missing fields keep the declared
// defaults. Binding never fails hard: a structurally broken payload
// degrades to the all-defaults configuration and the returned error is
// purely diagnostic.
//
//	type CounterConfig struct {
//	    Interval int `mapstructure:"interval"`
//	    MaxCount int `mapstructure:"maxCount"`
//	}
//
//	var cfg CounterConfig
//	if err := config.Bind(raw, &cfg); err != nil {
//	    log.Warn("config degraded to defaults", logger.Fields("error", err.Error()))
//	}
//
// # Host configuration
//
// LoadHostConfig reads PROVKIT_* environment variables (optionally
// seeded from a .env file) into a HostConfig for the host process
// itself: logging, graceful timeout, tracing.
package config
