// Package library adapts meridian-llm-go providers (OpenRouter, lorem)
// to the ChatCompleter interface.
package library

import (
	"context"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	domainllm "prooftree/internal/domain/services/llm"
)

const blockTypeText = "text"

// Adapter wraps a library provider and converts between request shapes.
type Adapter struct {
	provider llmprovider.Provider
}

// NewOpenRouterAdapter creates an adapter backed by the library's OpenRouter provider.
func NewOpenRouterAdapter(apiKey string) (*Adapter, error) {
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, err
	}
	return NewAdapter(provider), nil
}

// NewLoremAdapter creates an adapter backed by the library's mock provider.
// It needs no API key and produces placeholder text.
func NewLoremAdapter() *Adapter {
	return NewAdapter(lorem.NewProvider())
}

// NewAdapter wraps an existing library provider.
func NewAdapter(provider llmprovider.Provider) *Adapter {
	return &Adapter{provider: provider}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return a.provider.Name().String()
}

// SupportsModel returns true if this provider supports the given model.
func (a *Adapter) SupportsModel(model string) bool {
	return a.provider.SupportsModel(model)
}

// Complete converts the request, calls the library provider and joins
// the returned text blocks.
func (a *Adapter) Complete(ctx context.Context, req *domainllm.ChatRequest) (*domainllm.ChatResponse, error) {
	libResp, err := a.provider.GenerateResponse(ctx, toLibraryRequest(req))
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range libResp.Blocks {
		if block.BlockType == blockTypeText && block.TextContent != nil {
			text.WriteString(*block.TextContent)
		}
	}

	return &domainllm.ChatResponse{
		Content:      text.String(),
		Model:        libResp.Model,
		InputTokens:  libResp.InputTokens,
		OutputTokens: libResp.OutputTokens,
		StopReason:   libResp.StopReason,
	}, nil
}

func toLibraryRequest(req *domainllm.ChatRequest) *llmprovider.GenerateRequest {
	messages := make([]llmprovider.Message, len(req.Messages))
	for i, msg := range req.Messages {
		content := msg.Content
		messages[i] = llmprovider.Message{
			Role: msg.Role,
			Blocks: []*llmprovider.Block{{
				BlockType:   blockTypeText,
				Sequence:    0,
				TextContent: &content,
			}},
		}
	}

	params := &llmprovider.RequestParams{
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		params.MaxTokens = &maxTokens
	}
	if req.System != "" {
		system := req.System
		params.System = &system
	}

	return &llmprovider.GenerateRequest{
		Messages: messages,
		Model:    req.Model,
		Params:   params,
	}
}
