package model

import (
	"context"

	"memodesk/mcp"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts model backend implementations (Ollama, OpenAI,
// OpenRouter, Anthropic) using the provider-agnostic types of this package.
//
// The interface lives in the model package rather than the provider package
// to avoid import cycles: provider implementations import model, and the
// loop uses Provider without importing the provider package.
type Provider interface {
	// Chat sends the full history and the available tools and blocks until
	// the backend returns one assistant message.
	Chat(ctx context.Context, messages []Message, tools []mcptypes.Tool, opts ChatOptions) (Message, error)

	// Name identifies the backend, e.g. "ollama"
	Name() string

	// GetModel returns the model used for API calls
	GetModel() string

	// SetModel changes the active model
	SetModel(model string)

	// Ping checks if the backend is reachable
	Ping(ctx context.Context) error
}

// ChatOptions adjusts a single Chat request.
type ChatOptions struct {
	// ToolChoiceNone keeps the tools declared but forbids calling them, so
	// the model must answer in text. Backends without a tool_choice setting
	// send no tools instead.
	ToolChoiceNone bool
}

// ToolSession executes tool calls against the server
type ToolSession interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error)
}
