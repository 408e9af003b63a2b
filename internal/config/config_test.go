package config

import (
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout.Duration() != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = true, want false by default")
	}
	if cfg.Telemetry.ServiceName != "reflectd" {
		t.Errorf("Telemetry.ServiceName = %q, want reflectd", cfg.Telemetry.ServiceName)
	}
	if cfg.Telemetry.SamplingRate != 1.0 {
		t.Errorf("Telemetry.SamplingRate = %f, want 1.0", cfg.Telemetry.SamplingRate)
	}
	if cfg.Reflection.CallTimeout.Duration() != 2*time.Minute {
		t.Errorf("Reflection.CallTimeout = %v, want 2m", cfg.Reflection.CallTimeout.Duration())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config Validate() = %v, want nil", err)
	}
}

func TestApplyDefaults_GoogleProvider(t *testing.T) {
	cfg := &Config{}
	cfg.Provider.Kind = ProviderKindGoogle
	applyDefaults(cfg)

	if cfg.Provider.Model != "gemini-1.5-flash" {
		t.Errorf("Provider.Model = %q, want gemini-1.5-flash", cfg.Provider.Model)
	}
	if cfg.Provider.CloudLocation != "us-central1" {
		t.Errorf("Provider.CloudLocation = %q, want us-central1", cfg.Provider.CloudLocation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "port too low",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "port too high",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(cfg *Config) { cfg.Server.ShutdownTimeout = 0 },
			wantErr: "shutdown timeout must be positive",
		},
		{
			name:    "bad logging format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name: "telemetry enabled without endpoint",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Enabled = true
				cfg.Telemetry.Endpoint = ""
			},
			wantErr: "telemetry endpoint required",
		},
		{
			name: "telemetry bad protocol",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Enabled = true
				cfg.Telemetry.Protocol = "udp"
			},
			wantErr: "invalid telemetry protocol",
		},
		{
			name: "telemetry sampling rate out of range",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Enabled = true
				cfg.Telemetry.SamplingRate = 1.5
			},
			wantErr: "invalid telemetry sampling rate",
		},
		{
			name:    "unknown provider kind",
			mutate:  func(cfg *Config) { cfg.Provider.Kind = "anthropic" },
			wantErr: "invalid provider kind",
		},
		{
			name:    "missing provider model",
			mutate:  func(cfg *Config) { cfg.Provider.Model = "" },
			wantErr: "provider model required",
		},
		{
			name:    "missing system message",
			mutate:  func(cfg *Config) { cfg.Reflection.SystemMessage = "" },
			wantErr: "reflection system message required",
		},
		{
			name:    "negative call timeout",
			mutate:  func(cfg *Config) { cfg.Reflection.CallTimeout = Duration(-time.Second) },
			wantErr: "call timeout cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
