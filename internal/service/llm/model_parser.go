package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ModelInfo is a model string resolved to the provider that serves it.
type ModelInfo struct {
	Provider string
	Model    string // as the provider expects it
}

// modelPrefixes maps bare model-name prefixes to providers. Checked in order.
var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude-", "anthropic"},
	{"gpt-", "openai"},
	{"chatgpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"lorem-", "lorem"},
}

// ParseModel resolves a model string.
//
//	"gpt-4o"                         → openai, "gpt-4o"
//	"claude-sonnet-4-5"              → anthropic, "claude-sonnet-4-5"
//	"openrouter/deepseek/prover-v2"  → openrouter, "deepseek/prover-v2"
//
// A "/" always selects the provider explicitly; everything after the first
// slash is passed through untouched.
func ParseModel(model string) (*ModelInfo, error) {
	if model == "" {
		return nil, errors.New("model is required")
	}

	if provider, rest, ok := strings.Cut(model, "/"); ok {
		if provider == "" || rest == "" {
			return nil, fmt.Errorf("malformed model %q, want provider/model", model)
		}
		return &ModelInfo{Provider: strings.ToLower(provider), Model: rest}, nil
	}

	lower := strings.ToLower(model)
	for _, p := range modelPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return &ModelInfo{Provider: p.provider, Model: model}, nil
		}
	}
	return nil, fmt.Errorf("no provider serves model %q", model)
}
