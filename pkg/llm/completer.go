// Package llm turns a provider configuration into a text-completion
// capability via langchaingo.
//
// The package hides per-provider construction differences behind the
// Completer interface: one prompt string in, one model-generated string
// out. Supported providers are OpenAI (and OpenAI-compatible endpoints)
// and Google Vertex AI.
//
// Example usage:
//
//	cfg := llm.Config{
//	    Provider:     llm.ProviderOpenAI,
//	    Model:        "gpt-4o-mini",
//	    Temperature:  0.8,
//	    APIKey:       os.Getenv("OPENAI_API_KEY"),
//	    Organization: os.Getenv("OPENAI_ORGANIZATION"),
//	}
//	completer, err := llm.NewCompleter(ctx, cfg, "You are a helpful assistant.")
//	if err != nil {
//	    // Handle error
//	}
//	text, err := completer.Complete(ctx, "Write a haiku about rivers.")
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/googleai/vertex"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrProviderInit indicates the underlying provider client could not
	// be constructed or authenticated.
	ErrProviderInit = errors.New("provider initialization failed")

	// ErrEmptyCompletion indicates the provider returned no usable text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Completer is the completion capability: it turns a prompt into
// model-generated text. Implementations are safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// client binds a langchaingo model to a system message and temperature.
type client struct {
	model         llms.Model
	systemMessage string
	temperature   float64
}

// NewCompleter builds a Completer for the given provider configuration.
// The system message is sent as a system-role message on every call.
//
// The configuration is validated first; validation failures wrap
// ErrInvalidConfig and happen before any network-capable call. Client
// construction failures wrap ErrProviderInit.
func NewCompleter(ctx context.Context, cfg Config, systemMessage string) (Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var model llms.Model
	var err error

	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
			openai.WithOrganization(cfg.Organization),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case ProviderGoogle:
		opts := []googleai.Option{
			googleai.WithDefaultModel(cfg.Model),
		}
		if cfg.CloudProject != "" {
			opts = append(opts, googleai.WithCloudProject(cfg.CloudProject))
		}
		if cfg.CloudLocation != "" {
			opts = append(opts, googleai.WithCloudLocation(cfg.CloudLocation))
		}
		model, err = vertex.New(ctx, opts...)
	default:
		// Validate already rejected unknown providers; keep the switch
		// exhaustive regardless.
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s client: %v", ErrProviderInit, cfg.Provider, err)
	}

	return &client{
		model:         model,
		systemMessage: systemMessage,
		temperature:   cfg.Temperature,
	}, nil
}

// Complete sends the system message and prompt to the model and returns
// the first choice's text.
//
// Returns ErrEmptyCompletion if the provider produced no text.
func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if c.systemMessage != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, c.systemMessage))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Content, nil
}
