package llm

import "context"

// ChatCompleter defines the interface that all chat-completion providers
// implement. The proof service treats it as opaque request/response.
type ChatCompleter interface {
	// Complete sends the messages and returns the model's text answer.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider name (e.g., "openai", "anthropic")
	Name() string

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}

// ChatRequest contains the parameters for a chat-completion request.
type ChatRequest struct {
	// Model is the provider-local model identifier (e.g., "gpt-4o")
	Model string

	// System is an optional system prompt
	System string

	// Messages contains the conversation, oldest first
	Messages []ChatMessage

	// MaxTokens caps the output; zero lets the provider decide
	MaxTokens int

	// Temperature is only sent when non-nil
	Temperature *float64

	// JSONMode asks the provider to constrain output to a JSON object
	JSONMode bool
}

// ChatMessage is a single message in the conversation.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse contains the provider's answer.
type ChatResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// UserMessage builds a single user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}
