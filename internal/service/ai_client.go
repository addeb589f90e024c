package service

import (
	"context"
)

// AIClient is the interface for the chat/vision model endpoint. Components
// receive it at construction so tests can substitute doubles and callers can
// configure clients per request.
type AIClient interface {
	// ChatCompletion performs a blocking chat completion and returns the
	// assistant message content.
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (string, error)

	// ChatCompletionStream performs a streaming chat completion. The callback
	// receives each chunk as it arrives.
	ChatCompletionStream(ctx context.Context, req ChatCompletionRequest, callback StreamCallback) error

	// AnalyzeImage sends an image (as a data URL) plus a question to the
	// vision model. Request/response only; the vision endpoint does not
	// stream.
	AnalyzeImage(ctx context.Context, systemPrompt, question, imageDataURL string) (string, error)

	// CreateEmbeddings generates embeddings for texts
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// StreamChunk represents one streaming response chunk
type StreamChunk struct {
	// Regular content delta
	Content string

	// Thinking/reasoning content (thinking-capable models only)
	ThinkingContent string

	// Role (assistant, user, system)
	Role string

	// Whether this is the final chunk
	Done bool
}

// StreamCallback is called for each chunk in streaming mode
type StreamCallback func(chunk *StreamChunk) error
