package ai

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct{}

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "ok", nil
}

func TestProviderRegistry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		register func(*ProviderRegistry)
		lookup   string
		config   map[string]string
		validate func(*testing.T, CompletionProvider, error)
	}{
		{
			name: "registered provider is returned",
			register: func(r *ProviderRegistry) {
				r.Register("stub", func(config map[string]string) (CompletionProvider, error) {
					return &stubProvider{}, nil
				})
			},
			lookup: "stub",
			validate: func(t *testing.T, p CompletionProvider, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p == nil {
					t.Fatal("expected a provider")
				}
			},
		},
		{
			name:     "unknown provider",
			register: func(r *ProviderRegistry) {},
			lookup:   "anthropic",
			validate: func(t *testing.T, p CompletionProvider, err error) {
				var notFound *ErrProviderNotFound
				if !errors.As(err, &notFound) {
					t.Fatalf("expected ErrProviderNotFound, got %v", err)
				}
				if notFound.Name != "anthropic" {
					t.Errorf("expected name in error, got %q", notFound.Name)
				}
			},
		},
		{
			name: "factory receives config",
			register: func(r *ProviderRegistry) {
				r.Register("echo", func(config map[string]string) (CompletionProvider, error) {
					if config["api_key"] != "sk-test" {
						t.Errorf("expected api_key to reach factory, got %q", config["api_key"])
					}
					return &stubProvider{}, nil
				})
			},
			lookup: "echo",
			config: map[string]string{"api_key": "sk-test"},
			validate: func(t *testing.T, p CompletionProvider, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := NewProviderRegistry()
			tt.register(registry)

			provider, err := registry.GetProvider(tt.lookup, tt.config)
			tt.validate(t, provider, err)
		})
	}
}

func TestRegisterOpenAI(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	RegisterOpenAI(registry)

	provider, err := registry.GetProvider("openai", map[string]string{
		"api_key": "sk-test",
		"model":   "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*OpenAIProvider); !ok {
		t.Fatalf("expected *OpenAIProvider, got %T", provider)
	}

	if _, err := registry.GetProvider("openai", map[string]string{}); err == nil {
		t.Fatal("expected an error when api_key is missing")
	}
}
