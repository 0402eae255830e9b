package testutil

import (
	"time"

	"memodesk/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// TestMessages returns a sample conversation with one tool round
func TestMessages() []model.Message {
	return []model.Message{
		{
			Role:      model.RoleSystem,
			Content:   "You are a helpful HR assistant.",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleUser,
			Content:   "What is Alice's bonus with score 5 and salary 90000?",
			Timestamp: time.Now(),
		},
		{
			Role: model.RoleAssistant,
			ToolCalls: []model.ToolCall{
				{ID: "call_1", Name: "calculate_bonus", Arguments: map[string]any{"salary": 90000.0, "performance_score": 5.0}},
			},
			Timestamp: time.Now(),
		},
		{
			Role:       model.RoleTool,
			Content:    "Calculated Bonus: $18000.0",
			ToolCallID: "call_1",
			ToolName:   "calculate_bonus",
			Timestamp:  time.Now(),
		},
		{
			Role:      model.RoleAssistant,
			Content:   "Alice's bonus is $18,000.",
			Timestamp: time.Now(),
		},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{
			Role:      model.RoleUser,
			Content:   content,
			Timestamp: time.Now(),
		},
	}
}

// TestMCPTools returns the bonus and password tool descriptors
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "calculate_bonus",
			Description: "Calculates yearly bonus based on performance (1-5).",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"salary": map[string]any{
						"type":        "number",
						"description": "Yearly salary",
					},
					"performance_score": map[string]any{
						"type":        "integer",
						"description": "Performance score from 1 to 5",
					},
				},
				Required: []string{"salary", "performance_score"},
			},
		},
		{
			Name:        "reset_password",
			Description: "Resets the password for a specific user and generates a temporary one.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"user_id": map[string]any{
						"type":        "string",
						"description": "Employee ID, e.g. emp_101",
					},
				},
				Required: []string{"user_id"},
			},
		},
	}
}

// EmptyMessages returns an empty message slice for edge case testing
func EmptyMessages() []model.Message {
	return []model.Message{}
}
