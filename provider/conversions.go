package provider

import (
	"encoding/json"

	"memodesk/model"

	"github.com/ollama/ollama/api"
)

// ConvertToOllamaMessages converts model.Message history to Ollama api.Message.
//
// Assistant messages keep their tool requests and tool messages carry the
// name of the tool that produced them, which is how Ollama pairs results
// with calls (it has no call IDs).
//
// Note: The Timestamp and ToolCallID fields are not preserved, as the Ollama
// API does not support them.
//
// Example:
//
//	history := []model.Message{
//	    {Role: "user", Content: "Bonus for 100000 at score 4?"},
//	    {Role: "assistant", ToolCalls: []model.ToolCall{{Name: "calculate_bonus", Arguments: args}}},
//	    {Role: "tool", ToolName: "calculate_bonus", Content: "18000.0"},
//	}
//	ollamaMessages := ConvertToOllamaMessages(history)
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: ConvertFromProviderToolCalls(msg.ToolCalls),
			ToolName:  msg.ToolName,
		}
	}
	return result
}

// ParseToolArguments parses JSON arguments string into a map.
// Used by OpenAI and OpenRouter providers for tool call parsing.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		// If parsing fails, return empty map
		return make(map[string]any)
	}
	return args
}

// marshalToolArguments is the inverse of ParseToolArguments. Nil arguments
// encode as an empty object.
func marshalToolArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ConvertFromOllamaMessage converts one Ollama reply into a model.Message.
//
// The role is always assistant. The Timestamp is left zero; the history
// stamps messages when they are appended.
func ConvertFromOllamaMessage(msg api.Message) model.Message {
	return model.Message{
		Role:      model.RoleAssistant,
		Content:   msg.Content,
		ToolCalls: ConvertToProviderToolCalls(msg.ToolCalls),
	}
}

// ConvertToProviderToolCalls converts Ollama api.ToolCall to provider-agnostic model.ToolCall.
//
// Ollama assigns no call IDs, so ID is left empty. Nil arguments become an
// empty map so tools always receive an object.
//
// Returns nil if the input is nil or empty, maintaining the same nil semantics as
// the Ollama API.
//
// Example:
//
//	ollamaCalls := []api.ToolCall{
//	    {Function: api.ToolCallFunction{
//	        Name:      "reset_password",
//	        Arguments: map[string]any{"user_id": "emp_101"},
//	    }},
//	}
//	providerCalls := ConvertToProviderToolCalls(ollamaCalls)
//	// providerCalls[0].Name == "reset_password"
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		args := map[string]any(call.Function.Arguments)
		if args == nil {
			args = map[string]any{}
		}
		result[i] = model.ToolCall{
			Name:      call.Function.Name,
			Arguments: args,
		}
	}
	return result
}

// ConvertFromProviderToolCalls converts provider-agnostic model.ToolCall to Ollama api.ToolCall.
//
// Used when replaying assistant tool requests back to Ollama as part of the
// history.
//
// Returns nil if the input is nil or empty, maintaining the same nil semantics.
func ConvertFromProviderToolCalls(providerCalls []model.ToolCall) []api.ToolCall {
	if len(providerCalls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(providerCalls))
	for i, call := range providerCalls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}
	return result
}
