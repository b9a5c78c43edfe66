package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/provkit/provkit/logger"
)

const envPrefix = "PROVKIT"

// TraceConfig configures the optional OTLP trace/metric export.
// Tracing stays off unless an endpoint is set.
type TraceConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	Insecure   bool    `mapstructure:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// HostConfig holds settings for the host process itself, independent
// of any provider configuration bound later from the transport.
type HostConfig struct {
	Logging         logger.Config `mapstructure:"logging"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	Trace           TraceConfig   `mapstructure:"trace"`
}

// ApplyDefaults applies default values to the host configuration.
func (c *HostConfig) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	if c.GracefulTimeout == 0 {
		c.GracefulTimeout = 10 * time.Second
	}
	if c.Trace.SampleRate == 0 {
		c.Trace.SampleRate = 1.0
	}
}

// Validate validates the host configuration.
func (c *HostConfig) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("host config: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("host config: %w", err)
	}
	return nil
}

var validate = validator.New()

// LoadHostConfig builds a HostConfig from PROVKIT_* environment
// variables, optionally seeded from a .env file in the working
// directory. Host settings never arrive over the transport: the
// orchestrator controls them through the process environment.
//
// Recognized variables include PROVKIT_LOGGING_LEVEL,
// PROVKIT_LOGGING_FORMAT, PROVKIT_GRACEFUL_TIMEOUT, and
// PROVKIT_TRACE_ENDPOINT.
func LoadHostConfig() (HostConfig, error) {
	var cfg HostConfig

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load .env: %v\n", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("graceful_timeout", 10*time.Second)
	v.SetDefault("trace.endpoint", "")
	v.SetDefault("trace.insecure", true)
	v.SetDefault("trace.sample_rate", 1.0)

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("host config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
