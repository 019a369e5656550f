package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"prooftree/internal/domain"
	domainllm "prooftree/internal/domain/services/llm"
	"prooftree/internal/metrics"
	"prooftree/internal/telemetry"
)

// ProviderRegistry routes chat requests to the provider named by the model
// string. It implements domainllm.ChatCompleter so callers never pick a
// provider themselves.
type ProviderRegistry struct {
	factory *ProviderFactory
	cache   map[string]domainllm.ChatCompleter
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory *ProviderFactory, logger *slog.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		cache:   make(map[string]domainllm.ChatCompleter),
		logger:  logger,
	}
}

// GetProvider returns the cached provider for the given name, creating it
// on first use.
func (r *ProviderRegistry) GetProvider(provider string) (domainllm.ChatCompleter, error) {
	if provider == "" {
		return nil, fmt.Errorf("%w: provider cannot be empty", domain.ErrValidation)
	}

	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	created, err := r.factory.GetProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	r.cache[provider] = created
	return created, nil
}

// Name returns the registry name.
func (r *ProviderRegistry) Name() string {
	return "registry"
}

// SupportsModel reports whether the model string resolves to a provider
// that can be created with the current configuration.
func (r *ProviderRegistry) SupportsModel(model string) bool {
	info, err := ParseModel(model)
	if err != nil {
		return false
	}
	_, err = r.GetProvider(info.Provider)
	return err == nil
}

// Available reports, for every registered provider, whether it can be
// created with the current configuration.
func (r *ProviderRegistry) Available() map[string]bool {
	out := make(map[string]bool)
	for _, name := range r.factory.Providers() {
		_, err := r.GetProvider(name)
		out[name] = err == nil
	}
	return out
}

// Complete resolves the provider from req.Model and forwards the request
// with the provider-local model identifier. Provider call failures are
// wrapped with domain.ErrUpstream.
func (r *ProviderRegistry) Complete(ctx context.Context, req *domainllm.ChatRequest) (*domainllm.ChatResponse, error) {
	info, err := ParseModel(req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	provider, err := r.GetProvider(info.Provider)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer("llm").Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", info.Provider),
		attribute.String("llm.model", info.Model),
		attribute.Bool("llm.json_mode", req.JSONMode),
	)

	local := *req
	local.Model = info.Model

	start := time.Now()
	resp, err := provider.Complete(ctx, &local)
	elapsed := time.Since(start)

	operation := "text"
	if req.JSONMode {
		operation = "json"
	}

	if err != nil {
		metrics.LLMRequestDuration.WithLabelValues(info.Provider, operation, "error").Observe(elapsed.Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("llm request failed",
			"provider", info.Provider,
			"model", info.Model,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	metrics.LLMRequestDuration.WithLabelValues(info.Provider, operation, "ok").Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.InputTokens),
		attribute.Int("llm.output_tokens", resp.OutputTokens),
	)
	r.logger.Debug("llm request completed",
		"provider", info.Provider,
		"model", info.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"stop_reason", resp.StopReason,
		"duration_ms", elapsed.Milliseconds(),
	)

	return resp, nil
}
