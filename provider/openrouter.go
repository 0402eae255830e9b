package provider

import (
	"fmt"

	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "meta-llama/llama-3.2-90b-instruct"
)

// NewOpenRouterProvider creates a provider for OpenRouter, which speaks the
// OpenAI chat completions protocol.
//
// Parameters:
//   - baseURL: OpenRouter API base URL (default: DefaultOpenRouterBaseURL)
//   - apiKey: OpenRouter API key (required)
//   - model: Initial model to use (default: DefaultOpenRouterModel)
//
// The returned provider reports "openrouter" as its name and sends the
// attribution headers OpenRouter asks clients for.
func NewOpenRouterProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return newOpenAICompatible(string(ProviderTypeOpenRouter), baseURL, model,
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHeader("X-Title", "memodesk"),
	), nil
}
