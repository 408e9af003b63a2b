package llm

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates missing or invalid provider configuration,
// detected before any network call.
var ErrInvalidConfig = errors.New("invalid provider configuration")

// Provider identifies which LLM backend a Config targets.
type Provider string

const (
	// ProviderOpenAI targets the OpenAI chat completions API, or any
	// OpenAI-compatible endpoint via Config.BaseURL.
	ProviderOpenAI Provider = "openai"

	// ProviderGoogle targets Google Vertex AI.
	ProviderGoogle Provider = "google"
)

// Config selects a provider and the parameters for reaching it.
//
// Config is a tagged union: Provider picks the adapter branch, and each
// branch reads only the fields it needs. A Config is treated as immutable
// once handed to NewCompleter.
type Config struct {
	// Provider selects the backend adapter branch.
	Provider Provider

	// Model is the model name, e.g. "gpt-4o-mini" or "gemini-1.5-flash".
	Model string

	// Temperature is the sampling temperature, bound on every completion
	// call. OpenAI accepts [0, 2], Vertex AI [0, 1].
	Temperature float64

	// APIKey authenticates against OpenAI. Required for ProviderOpenAI.
	APIKey string

	// Organization is the OpenAI organization ID. Required for
	// ProviderOpenAI.
	Organization string

	// BaseURL overrides the OpenAI endpoint. Optional; useful for
	// OpenAI-compatible local servers and for tests.
	BaseURL string

	// CloudProject is the Google Cloud project for Vertex AI. Optional if
	// ambient credentials carry one.
	CloudProject string

	// CloudLocation is the Vertex AI region, e.g. "us-central1".
	CloudLocation string
}

// Validate checks the configuration for the selected provider.
//
// All failures wrap ErrInvalidConfig. Validate performs no network calls.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: api key required for openai", ErrInvalidConfig)
		}
		if c.Organization == "" {
			return fmt.Errorf("%w: organization required for openai", ErrInvalidConfig)
		}
		if c.Temperature < 0 || c.Temperature > 2 {
			return fmt.Errorf("%w: temperature %g outside [0, 2]", ErrInvalidConfig, c.Temperature)
		}
	case ProviderGoogle:
		if c.Temperature < 0 || c.Temperature > 1 {
			return fmt.Errorf("%w: temperature %g outside [0, 1]", ErrInvalidConfig, c.Temperature)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}

	return nil
}

// Redacted returns a loggable description of the config without
// credentials.
func (c Config) Redacted() string {
	return fmt.Sprintf("%s/%s (temperature=%g)", c.Provider, c.Model, c.Temperature)
}
