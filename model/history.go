package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrSystemMessage = errors.New("system message is only allowed at index 0")

// History is the ordered, append-only conversation transcript. A system
// prompt, when present, is always at index 0.
type History struct {
	messages []Message
}

func NewHistory(systemPrompt string) *History {
	h := &History{}
	if systemPrompt != "" {
		h.messages = append(h.messages, Message{
			Role:      RoleSystem,
			Content:   systemPrompt,
			Timestamp: time.Now(),
		})
	}
	return h
}

// Append adds messages in order. System messages are rejected.
func (h *History) Append(msgs ...Message) error {
	for _, m := range msgs {
		if m.Role == RoleSystem {
			return ErrSystemMessage
		}
	}
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now()
		}
		h.messages = append(h.messages, m)
	}
	return nil
}

// Messages returns a copy of the transcript
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	return len(h.messages)
}

// Last returns the most recent message
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Validate checks the transcript invariants: the system message only at
// index 0, and every assistant message with tool calls followed by exactly
// one tool message per call, in request order.
func Validate(messages []Message) error {
	for i := 0; i < len(messages); i++ {
		m := messages[i]

		switch m.Role {
		case RoleSystem:
			if i != 0 {
				return fmt.Errorf("message %d: %w", i, ErrSystemMessage)
			}
		case RoleUser, RoleAssistant, RoleTool:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}

		if m.Role == RoleTool {
			return fmt.Errorf("message %d: tool message without a preceding tool request", i)
		}

		if m.Role != RoleAssistant || !m.HasToolCalls() {
			continue
		}

		for j, call := range m.ToolCalls {
			k := i + 1 + j
			if k >= len(messages) {
				return fmt.Errorf("message %d: missing result for tool call %d (%s)", i, j, call.Name)
			}
			res := messages[k]
			if res.Role != RoleTool {
				return fmt.Errorf("message %d: expected tool result for %s, got %s message", k, call.Name, res.Role)
			}
			if res.ToolName != call.Name || (call.ID != "" && res.ToolCallID != call.ID) {
				return fmt.Errorf("message %d: result for %s/%s does not match call %s/%s",
					k, res.ToolName, res.ToolCallID, call.Name, call.ID)
			}
		}
		i += len(m.ToolCalls)
	}
	return nil
}
