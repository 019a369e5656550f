package llm

import (
	"log/slog"

	"prooftree/internal/config"
)

// SetupProviders initializes the provider factory and registry for routing.
func SetupProviders(cfg *config.Config, logger *slog.Logger) *ProviderRegistry {
	registry := NewProviderRegistry(NewProviderFactory(cfg), logger)

	// Log available providers based on config
	if cfg.OpenAIAPIKey != "" {
		logger.Info("provider available", "name", "openai", "models", "gpt-*, o1*, o3*, o4*")
	} else {
		logger.Warn("OPENAI_API_KEY not set - OpenAI provider not available")
	}
	if cfg.AnthropicAPIKey != "" {
		logger.Info("provider available", "name", "anthropic", "models", "claude-*")
	}
	if cfg.OpenRouterAPIKey != "" {
		logger.Info("provider available", "name", "openrouter", "models", "openrouter/*")
	}

	logger.Info("provider registry initialized",
		"default_model", cfg.DefaultModel,
		"judge_model", cfg.JudgeModel,
	)

	return registry
}
