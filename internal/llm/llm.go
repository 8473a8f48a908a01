// Package llm provides chat and vision clients for the model providers the
// optimizer can talk to. Defines a Client interface with OpenAI-compatible
// and Ollama implementations so providers can be swapped without changing
// consumers.
package llm

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// Image is one inline image attached to a request, shown to the model in
// order before the user prompt.
type Image struct {
	Data      []byte
	MediaType string // e.g. "image/png"
}

// Request is one chat completion request.
type Request struct {
	System      string
	User        string
	Images      []Image
	MaxTokens   int
	Temperature float64
}

// Client generates a completion for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configures provider construction.
type Options struct {
	Provider      string // "auto", "openai", "ollama", or "noop"
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string

	// Limiter caps outbound calls; nil disables limiting. Build one with
	// NewLimiter and share it across clients to cap the whole process.
	Limiter *rate.Limiter
}

// NewLimiter builds a shared client-side rate limiter. Zero or negative rps
// returns nil, which disables limiting.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// New selects a provider. "auto" prefers OpenAI when an API key is present,
// then Ollama when a URL is configured, and otherwise falls back to a noop
// client that fails every call — a run without a provider should fail loudly
// at the first proposal, not drift on fabricated output.
func New(opts Options) Client {
	provider := opts.Provider
	if provider == "" || provider == "auto" {
		switch {
		case opts.OpenAIAPIKey != "":
			provider = "openai"
		case opts.OllamaURL != "":
			provider = "ollama"
		default:
			provider = "noop"
		}
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(opts.OpenAIBaseURL, opts.OpenAIAPIKey, opts.Model, opts.Limiter)
	case "ollama":
		return NewOllamaClient(opts.OllamaURL, opts.Model, opts.Limiter)
	default:
		return NoopClient{}
	}
}

// ErrNoProvider is returned by NoopClient for every call.
var ErrNoProvider = errors.New("llm: no provider configured")

// NoopClient is the fallback when neither an API key nor an Ollama URL is
// configured. Every call fails with ErrNoProvider.
type NoopClient struct{}

// Complete always fails.
func (NoopClient) Complete(_ context.Context, _ Request) (string, error) {
	return "", ErrNoProvider
}

// wait blocks on the shared limiter when one is configured.
func wait(ctx context.Context, lim *rate.Limiter) error {
	if lim == nil {
		return nil
	}
	return lim.Wait(ctx)
}
