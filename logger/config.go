package logger

import "fmt"

// Config contains logging configuration for a host process.
type Config struct {
	Level     string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format    string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output    string `mapstructure:"output" validate:"omitempty,oneof=stderr discard"`
	NoColor   bool   `mapstructure:"no_color"`
	Timestamp bool   `mapstructure:"timestamp"`
	Caller    bool   `mapstructure:"caller"`
}

// ApplyDefaults applies default values to logging configuration.
// The default output is stderr: stdout is reserved for protocol frames.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{"json", "console"}
	if !contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	if c.Output == "stdout" {
		return fmt.Errorf("logging.output stdout is reserved for protocol frames; use stderr")
	}
	return nil
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
