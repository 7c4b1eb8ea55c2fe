package ai

import (
	"context"
)

// CompletionProvider is the interface for LLM completion providers
type CompletionProvider interface {
	// Complete sends a completion request and returns the raw text response
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest describes one completion call
type CompletionRequest struct {
	// Operation names the caller for logging (e.g. "recommendation", "dish_list_extraction")
	Operation string
	// System is the system message, may be empty
	System string
	// Prompt is the user message
	Prompt string
	// MaxTokens limits the response length, 0 means provider default
	MaxTokens int64
	// Temperature controls randomness, used as-is when > 0
	Temperature float64
	// JSONResponse requests a JSON object response format
	JSONResponse bool
}

// ProviderFactory creates a completion provider from config values
type ProviderFactory func(config map[string]string) (CompletionProvider, error)

// ProviderRegistry stores available completion providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (CompletionProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "completion provider not found: " + e.Name
}
