package llm

import (
	"fmt"
	"sort"

	"prooftree/internal/config"
	"prooftree/internal/domain"
	domainllm "prooftree/internal/domain/services/llm"
	"prooftree/internal/service/llm/providers/anthropic"
	"prooftree/internal/service/llm/providers/library"
	"prooftree/internal/service/llm/providers/openai"
)

// CreatorFunc builds a provider from config. It returns an error wrapping
// domain.ErrConfiguration when a required key is missing.
type CreatorFunc func(cfg *config.Config) (domainllm.ChatCompleter, error)

// ProviderFactory creates chat-completion providers by name.
type ProviderFactory struct {
	config   *config.Config
	creators map[string]CreatorFunc
}

// NewProviderFactory creates a factory with the standard providers registered.
//
// Supported providers:
//   - "openai" - GPT and o-series models via go-openai
//   - "anthropic" - Claude models via anthropic-sdk-go
//   - "openrouter" - Multiple providers via OpenRouter (meridian-llm-go)
//   - "lorem" - Mock provider for testing (no API key required)
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	f := &ProviderFactory{
		config:   cfg,
		creators: make(map[string]CreatorFunc),
	}

	f.Register("openai", createOpenAIProvider)
	f.Register("anthropic", createAnthropicProvider)
	f.Register("openrouter", createOpenRouterProvider)
	f.Register("lorem", func(*config.Config) (domainllm.ChatCompleter, error) {
		return library.NewLoremAdapter(), nil
	})

	return f
}

// Register adds or replaces the creator for a provider name.
func (f *ProviderFactory) Register(providerName string, creator CreatorFunc) {
	f.creators[providerName] = creator
}

// Providers returns the registered provider names, sorted.
func (f *ProviderFactory) Providers() []string {
	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider returns a new provider instance for the given provider name.
func (f *ProviderFactory) GetProvider(providerName string) (domainllm.ChatCompleter, error) {
	creator, exists := f.creators[providerName]
	if !exists {
		return nil, fmt.Errorf("%w: unsupported provider: %s", domain.ErrValidation, providerName)
	}
	return creator(f.config)
}

func createOpenAIProvider(cfg *config.Config) (domainllm.ChatCompleter, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", domain.ErrConfiguration)
	}

	provider, err := openai.NewProvider(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}
	return provider, nil
}

func createAnthropicProvider(cfg *config.Config) (domainllm.ChatCompleter, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable not set", domain.ErrConfiguration)
	}

	provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}

func createOpenRouterProvider(cfg *config.Config) (domainllm.ChatCompleter, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENROUTER_API_KEY environment variable not set", domain.ErrConfiguration)
	}

	provider, err := library.NewOpenRouterAdapter(cfg.OpenRouterAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
	}
	return provider, nil
}
