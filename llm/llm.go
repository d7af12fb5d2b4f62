// Package llm defines the extraction/synthesis capability interface used
// by the map-reduce summarizer, together with the option set callers may
// configure for prompt behavior.
package llm

import (
	"context"

	"github.com/skillsenselab/scribeflow/provider"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"` // "system", "user", "assistant"
	Content string `json:"content" yaml:"content"`
}

// OutputFormat enumerates recognized response formats.
type OutputFormat string

const (
	// FormatMarkdown requests structured Markdown output.
	FormatMarkdown OutputFormat = "markdown"
	// FormatPlain requests unformatted prose output.
	FormatPlain OutputFormat = "plain"
)

// Options enumerates the recognized prompt/behavior options. Backends must
// honor every field they advertise support for; unknown combinations are a
// configuration error, not a silent fallback.
type Options struct {
	// OutputFormat selects the response format.
	OutputFormat OutputFormat `json:"output_format,omitempty" yaml:"output_format"`
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature"`
}

// CompletionRequest is the universal input for all LLM backends.
type CompletionRequest struct {
	// Model overrides the backend's default model.
	Model string `json:"model,omitempty" yaml:"model"`
	// Messages is the conversation history.
	Messages []Message `json:"messages" yaml:"messages"`
	// SystemPrompt is prepended as a system message.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	// Options carries the recognized prompt/behavior options.
	Options Options `json:"options,omitempty" yaml:"options"`
}

// CompletionResponse is the universal output from all LLM backends.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`
	// Model is the model that produced the response.
	Model string `json:"model"`
	// Usage reports token consumption.
	Usage Usage `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider is the interface that LLM backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// NewRegistry creates a new provider registry for LLM backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}
