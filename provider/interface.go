// Package provider implements model.Provider for the supported model backends.
//
// memodesk talks to a local Ollama server or to a hosted chat API (OpenAI,
// OpenRouter, Anthropic). Every backend accepts the provider-agnostic
// conversation history from the model package plus the MCP tool
// descriptors, and returns exactly one assistant message per call. The
// conversation loop never sees backend-specific types.
//
// # Type Conversions
//
// Each backend converts in both directions:
//   - model.Message history into the backend's message format, including
//     assistant tool requests and the tool results that answer them
//   - mcptypes.Tool descriptors into the backend's tool format (see the
//     adapters in the mcp package)
//   - the backend's reply into a model.Message with ToolCalls
//
// Ollama does not assign tool call IDs. The loop fills missing IDs before
// the request is recorded, so results can always be paired with calls.
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.2",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	reply, err := p.Chat(ctx, history, tools, model.ChatOptions{})
package provider

// Note: The Provider interface is defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For OpenAI/OpenRouter/Anthropic (unused for Ollama)
}
