package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"memodesk/config"
	"memodesk/mcp"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// State is a step of the turn state machine
type State int

const (
	StateAwaitingInput State = iota
	StateModelCall
	StateToolDispatch
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting-input"
	case StateModelCall:
		return "model-call"
	case StateToolDispatch:
		return "tool-dispatch"
	case StateFinal:
		return "final"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const skippedToolText = "Error: not executed, the tool server connection was lost"

// TurnObserver receives progress callbacks during a turn. Nil fields are skipped.
type TurnObserver struct {
	OnModelCall  func(round int, toolsOffered bool)
	OnToolCall   func(call ToolCall)
	OnToolResult func(call ToolCall, content string, isError bool)
}

// TurnResult summarizes one user turn
type TurnResult struct {
	Answer    string
	Rounds    int
	ToolCalls []ToolCall
	// Capped is set when the round limit forced a text-only answer
	Capped bool
}

// LoopOptions configures a Loop
type LoopOptions struct {
	SystemPrompt  string
	MaxToolRounds int
	Observer      TurnObserver
}

// Loop drives the conversation between the user, the model backend and the
// tool server.
type Loop struct {
	provider  Provider
	session   ToolSession
	tools     []mcptypes.Tool
	history   *History
	maxRounds int
	observer  TurnObserver
	state     State
}

func NewLoop(p Provider, s ToolSession, tools []mcptypes.Tool, opts LoopOptions) *Loop {
	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = config.DefaultMaxToolRounds
	}
	return &Loop{
		provider:  p,
		session:   s,
		tools:     tools,
		history:   NewHistory(opts.SystemPrompt),
		maxRounds: maxRounds,
		observer:  opts.Observer,
		state:     StateAwaitingInput,
	}
}

// History returns the conversation transcript
func (l *Loop) History() *History { return l.history }

// Tools returns the descriptors offered to the model
func (l *Loop) Tools() []mcptypes.Tool { return l.tools }

func (l *Loop) Provider() Provider { return l.provider }

// State is the step the loop is currently in
func (l *Loop) State() State { return l.state }

// Turn runs one user turn to completion.
//
// The user message stays in history even when the turn fails. A
// *BackendError means the model call failed and the caller may prompt again.
// A *TransportError means the tool server is gone and the session must end;
// history is left consistent, with an error result for every requested call.
func (l *Loop) Turn(ctx context.Context, input string) (*TurnResult, error) {
	if l.state != StateAwaitingInput {
		return nil, fmt.Errorf("turn already in progress (%s)", l.state)
	}
	defer func() { l.state = StateAwaitingInput }()

	if err := l.history.Append(Message{Role: RoleUser, Content: input}); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	var pending []ToolCall
	l.state = StateModelCall

	for {
		switch l.state {
		case StateModelCall:
			var opts ChatOptions
			if result.Rounds >= l.maxRounds {
				opts.ToolChoiceNone = true
				result.Capped = true
			}
			// History may already hold tool requests, so the tools stay
			// declared even when calling them is no longer allowed
			offered := l.tools != nil && !opts.ToolChoiceNone

			if l.observer.OnModelCall != nil {
				l.observer.OnModelCall(result.Rounds, offered)
			}

			start := time.Now()
			resp, err := l.provider.Chat(ctx, l.history.Messages(), l.tools, opts)
			if err != nil {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[Loop] Model call failed after %v: %v", time.Since(start), err)
				}
				return result, &BackendError{Provider: l.provider.Name(), Err: err}
			}
			resp.Role = RoleAssistant

			if config.DebugLog != nil {
				config.DebugLog.Printf("[Loop] Round %d: %d chars, %d tool calls (%v)",
					result.Rounds, len(resp.Content), len(resp.ToolCalls), time.Since(start))
			}

			if resp.HasToolCalls() && offered {
				resp.ToolCalls = withCallIDs(resp.ToolCalls)
				// The request goes into history before anything runs
				if err := l.history.Append(resp); err != nil {
					return result, err
				}
				pending = resp.ToolCalls
				l.state = StateToolDispatch
				continue
			}

			// Calls requested once tool use is forbidden are not executed
			resp.ToolCalls = nil
			if err := l.history.Append(resp); err != nil {
				return result, err
			}
			result.Answer = resp.Content
			l.state = StateFinal

		case StateToolDispatch:
			result.Rounds++
			if err := l.dispatch(ctx, pending, result); err != nil {
				return result, err
			}
			pending = nil
			l.state = StateModelCall

		case StateFinal:
			return result, nil
		}
	}
}

// dispatch runs calls sequentially in request order, appending one tool
// message per call.
func (l *Loop) dispatch(ctx context.Context, calls []ToolCall, result *TurnResult) error {
	for i, call := range calls {
		if l.observer.OnToolCall != nil {
			l.observer.OnToolCall(call)
		}
		result.ToolCalls = append(result.ToolCalls, call)

		var content string
		var isError bool

		res, err := l.session.CallTool(ctx, call.Name, call.Arguments)
		switch {
		case err != nil && errors.Is(err, mcp.ErrTransportClosed):
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Loop] Transport lost during %s: %v", call.Name, err)
			}
			l.appendResult(call, "Error: "+err.Error(), true)
			for _, rest := range calls[i+1:] {
				l.appendResult(rest, skippedToolText, true)
			}
			return &TransportError{Tool: call.Name, Err: err}

		case err != nil:
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Loop] Tool %s failed: %v", call.Name, err)
			}
			content = "Error: " + err.Error()
			isError = true

		default:
			content = res.Content
			isError = res.IsError
		}

		l.appendResult(call, content, isError)
	}
	return nil
}

func (l *Loop) appendResult(call ToolCall, content string, isError bool) {
	// Tool messages never carry the system role, so Append cannot fail here
	_ = l.history.Append(Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	})
	if l.observer.OnToolResult != nil {
		l.observer.OnToolResult(call, content, isError)
	}
}

// withCallIDs fills missing correlation ids so every backend can pair results.
func withCallIDs(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		if strings.TrimSpace(c.ID) == "" {
			c.ID = "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		out[i] = c
	}
	return out
}
