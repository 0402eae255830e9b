package provider

import (
	"context"
	"fmt"

	"memodesk/config"
	"memodesk/mcp"
	"memodesk/model"
	"memodesk/ollama"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// OllamaProvider wraps ollama.Client to implement model.Provider.
//
// This provider handles all type conversions between the provider-agnostic
// types of the model package and Ollama's API types. It converts
// model.Message to api.Message, mcptypes.Tool to api.Tool, and api.ToolCall
// to model.ToolCall.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to config.DefaultOllamaHost.
//   - model: The model name to use (e.g., "llama3.2").
//     If empty, defaults to config.DefaultModel.
//
// Returns an error if the baseURL is invalid.
//
// Example:
//
//	provider, err := NewOllamaProvider("http://localhost:11434", "llama3.2")
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{
		client: client,
	}, nil
}

// Chat implements model.Provider.Chat with type conversions.
//
// This method handles all necessary type conversions:
//   - Converts model.Message to api.Message (history → Ollama messages)
//   - Converts mcptypes.Tool to api.Tool (MCP → Ollama tools)
//   - Converts the reply's api.ToolCall to model.ToolCall
//
// Ollama has no tool_choice setting. A nil or empty tools slice, or
// ToolChoiceNone, sends the request without tools, which forces a text
// answer.
//
// Example:
//
//	history := []model.Message{{Role: "user", Content: "Reset emp_101"}}
//	reply, err := provider.Chat(ctx, history, tools, model.ChatOptions{})
//	if err != nil {
//	    return err
//	}
//	for _, call := range reply.ToolCalls {
//	    fmt.Printf("Tool: %s, Args: %v\n", call.Name, call.Arguments)
//	}
func (p *OllamaProvider) Chat(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, opts model.ChatOptions) (model.Message, error) {
	ollamaMessages := ConvertToOllamaMessages(messages)
	if opts.ToolChoiceNone {
		tools = nil
	}
	ollamaTools := mcp.OllamaTools(tools)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] ollama chat: model=%s messages=%d tools=%d", p.client.GetModel(), len(ollamaMessages), len(ollamaTools))
	}

	reply, err := p.client.Chat(ctx, ollamaMessages, ollamaTools)
	if err != nil {
		return model.Message{}, err
	}
	return ConvertFromOllamaMessage(reply), nil
}

// Name implements model.Provider.Name.
func (p *OllamaProvider) Name() string {
	return string(ProviderTypeOllama)
}

// GetModel implements model.Provider.GetModel (direct passthrough).
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// SetModel implements model.Provider.SetModel (direct passthrough).
//
// Changes the active model for subsequent chat operations.
func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// SupportsToolCalling reports whether the active model family is known to
// handle tool calls.
func (p *OllamaProvider) SupportsToolCalling() bool {
	return p.client.SupportsToolCalling()
}

// Ping implements model.Provider.Ping (direct passthrough).
//
// Returns an error if the server is not reachable or times out.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
