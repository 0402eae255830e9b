package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"memodesk/mcp"
	"memodesk/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ChatCall records one invocation of MockProvider.Chat
type ChatCall struct {
	Messages []model.Message
	Tools    []mcptypes.Tool
	Options  model.ChatOptions
}

// Step is one scripted backend reply
type Step struct {
	Reply model.Message
	Err   error
}

// Reply scripts a plain text answer
func Reply(content string) Step {
	return Step{Reply: model.Message{Role: model.RoleAssistant, Content: content}}
}

// CallTools scripts an assistant message requesting the given calls
func CallTools(calls ...model.ToolCall) Step {
	return Step{Reply: model.Message{Role: model.RoleAssistant, ToolCalls: calls}}
}

// Fail scripts a backend failure
func Fail(err error) Step {
	return Step{Err: err}
}

var ErrScriptExhausted = errors.New("mock provider: no scripted reply left")

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// ChatFunc overrides the scripted replies when set
	ChatFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, opts model.ChatOptions) (model.Message, error)
	PingFunc func(ctx context.Context) error

	mu           sync.Mutex
	script       []Step
	calls        []ChatCall
	currentModel string
}

// NewMockProvider creates a mock provider that always answers "Mock response"
func NewMockProvider(modelName string) *MockProvider {
	m := &MockProvider{currentModel: modelName}
	m.ChatFunc = func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, opts model.ChatOptions) (model.Message, error) {
		return model.Message{Role: model.RoleAssistant, Content: "Mock response"}, nil
	}
	return m
}

// NewScriptedProvider replays steps in order, one per Chat call
func NewScriptedProvider(steps ...Step) *MockProvider {
	return &MockProvider{currentModel: "mock-model", script: steps}
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, opts model.ChatOptions) (model.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{Messages: messages, Tools: tools, Options: opts})
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages, tools, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.script) == 0 {
		return model.Message{}, ErrScriptExhausted
	}
	step := m.script[0]
	m.script = m.script[1:]
	return step.Reply, step.Err
}

// Calls returns the recorded Chat invocations
func (m *MockProvider) Calls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// ToolInvocation records one call made through MockSession
type ToolInvocation struct {
	Name string
	Args map[string]any
}

// MockSession implements model.ToolSession for testing
type MockSession struct {
	CallToolFunc func(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error)

	mu    sync.Mutex
	calls []ToolInvocation
}

// NewMockSession answers each tool with a fixed text. Unknown tools get a
// tool-level error result.
func NewMockSession(results map[string]string) *MockSession {
	return &MockSession{
		CallToolFunc: func(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
			text, ok := results[name]
			if !ok {
				return &mcp.ToolResult{ToolName: name, Content: fmt.Sprintf("Error: unknown tool %q", name), IsError: true}, nil
			}
			return &mcp.ToolResult{ToolName: name, Content: text}, nil
		},
	}
}

func (s *MockSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ToolInvocation{Name: name, Args: args})
	s.mu.Unlock()
	return s.CallToolFunc(ctx, name, args)
}

// Calls returns the recorded tool invocations in order
func (s *MockSession) Calls() []ToolInvocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolInvocation, len(s.calls))
	copy(out, s.calls)
	return out
}
