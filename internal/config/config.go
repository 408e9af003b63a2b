// Package config provides configuration loading for reflectd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. Provider credentials additionally fall back to the conventional
// provider environment variables (OPENAI_API_KEY, GOOGLE_CLOUD_PROJECT).
package config

import (
	"errors"
	"fmt"
	"time"
)

// Provider kinds accepted by ProviderConfig.Kind.
const (
	ProviderKindOpenAI = "openai"
	ProviderKindGoogle = "google"
)

// Config holds the complete reflectd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Provider   ProviderConfig   `koanf:"provider"`
	Reflection ReflectionConfig `koanf:"reflection"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration. The cmd layer maps this onto
// the logging package's richer config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration. The cmd layer
// maps this onto the telemetry package's config.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	Protocol     string  `koanf:"protocol"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

// ProviderConfig selects and parameterizes the completion provider backing
// the reflection engine.
//
// Kind selects the provider: "openai" (hosted OpenAI or any compatible
// endpoint via base_url) or "google" (Vertex AI). OpenAI requires api_key
// and organization; Google uses ambient gcloud credentials plus
// cloud_project/cloud_location.
type ProviderConfig struct {
	Kind          string  `koanf:"kind"`
	Model         string  `koanf:"model"`
	Temperature   float64 `koanf:"temperature"`
	APIKey        Secret  `koanf:"api_key"`
	Organization  string  `koanf:"organization"`
	BaseURL       string  `koanf:"base_url"`
	CloudProject  string  `koanf:"cloud_project"`
	CloudLocation string  `koanf:"cloud_location"`
}

// ReflectionConfig holds reflection engine configuration.
type ReflectionConfig struct {
	SystemMessage string   `koanf:"system_message"`
	CallTimeout   Duration `koanf:"call_timeout"`
}

// NewDefaultConfig returns a Config with all defaults applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Structural checks only: provider credentials and temperature bounds are
// validated by the llm package before any network call.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry endpoint required when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return errors.New("telemetry service name required when telemetry is enabled")
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("invalid telemetry protocol: %q (must be grpc or http/protobuf)", c.Telemetry.Protocol)
		}
		if c.Telemetry.SamplingRate < 0.0 || c.Telemetry.SamplingRate > 1.0 {
			return fmt.Errorf("invalid telemetry sampling rate: %f (must be 0.0-1.0)", c.Telemetry.SamplingRate)
		}
	}

	switch c.Provider.Kind {
	case ProviderKindOpenAI, ProviderKindGoogle:
	default:
		return fmt.Errorf("invalid provider kind: %q (must be openai or google)", c.Provider.Kind)
	}
	if c.Provider.Model == "" {
		return errors.New("provider model required")
	}

	if c.Reflection.SystemMessage == "" {
		return errors.New("reflection system message required")
	}
	if c.Reflection.CallTimeout.Duration() < 0 {
		return errors.New("reflection call timeout cannot be negative")
	}

	return nil
}

const defaultSystemMessage = "You are a helpful assistant."

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "reflectd"
	}
	if cfg.Telemetry.SamplingRate == 0 {
		cfg.Telemetry.SamplingRate = 1.0
	}

	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = ProviderKindOpenAI
	}
	if cfg.Provider.Model == "" {
		switch cfg.Provider.Kind {
		case ProviderKindGoogle:
			cfg.Provider.Model = "gemini-1.5-flash"
		default:
			cfg.Provider.Model = "gpt-4o-mini"
		}
	}
	if cfg.Provider.Kind == ProviderKindGoogle && cfg.Provider.CloudLocation == "" {
		cfg.Provider.CloudLocation = "us-central1"
	}

	if cfg.Reflection.SystemMessage == "" {
		cfg.Reflection.SystemMessage = defaultSystemMessage
	}
	if cfg.Reflection.CallTimeout == 0 {
		cfg.Reflection.CallTimeout = Duration(2 * time.Minute)
	}
}
