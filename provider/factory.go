package provider

import (
	"fmt"

	"memodesk/config"
	"memodesk/model"
)

// NewProvider creates a provider based on configuration.
//
// This is the centralized factory function for creating any provider type.
// It handles dispatching to the appropriate provider constructor based on
// the Config.Type field.
//
// Supported provider types:
//   - ProviderTypeOllama: Local Ollama server
//   - ProviderTypeOpenAI: OpenAI API
//   - ProviderTypeOpenRouter: OpenRouter (OpenAI-compatible)
//   - ProviderTypeAnthropic: Anthropic Messages API
//
// Returns an error if:
//   - The provider type is unknown
//   - The provider-specific constructor fails (e.g., invalid URL, missing key)
//
// Example (Ollama):
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.2",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Example (Anthropic):
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	}
//	p, err := provider.NewProvider(cfg)
func NewProvider(cfg Config) (model.Provider, error) {
	// Each constructor returns a typed pointer. Returning it straight through
	// would turn a nil *T into a non-nil interface on error.
	switch cfg.Type {
	case ProviderTypeOllama:
		p, err := NewOllamaProvider(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOpenRouter:
		p, err := NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOpenAI:
		p, err := NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeAnthropic:
		p, err := NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts config provider ID to factory ProviderType.
//
// Mappings:
//   - "ollama" → ProviderTypeOllama
//   - "openrouter" → ProviderTypeOpenRouter
//   - "openai" → ProviderTypeOpenAI
//   - "anthropic" → ProviderTypeAnthropic
//
// For unknown IDs, returns the ID cast as ProviderType (factory will error).
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}

// FromConfig builds the provider selected by the runtime configuration.
//
// Ollama uses the [ollama] host unless the provider section sets base_url.
// Cloud providers read their API key from the configured environment
// variable.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	pc := Config{
		Type:    MapProviderIDToType(cfg.ProviderType),
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model(),
		APIKey:  cfg.APIKey(),
	}
	if pc.Type == ProviderTypeOllama && pc.BaseURL == "" {
		pc.BaseURL = cfg.OllamaURL()
	}

	p, err := NewProvider(pc)
	if err != nil {
		if pc.Type != ProviderTypeOllama && pc.APIKey == "" && cfg.APIKeyEnv != "" {
			return nil, fmt.Errorf("%w (set %s)", err, cfg.APIKeyEnv)
		}
		return nil, err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Initialized %s provider (model %s)", p.Name(), p.GetModel())
	}
	return p, nil
}
