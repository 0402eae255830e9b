package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// The adapters below wrap a tool descriptor in a backend's function-calling
// format. Name, description and parameter schema pass through unchanged and
// no adapter keeps state between calls.

// OllamaTool adapts one tool for the Ollama chat API
func OllamaTool(tool mcptypes.Tool) api.Tool {
	return api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  ollamaParameters(tool.InputSchema),
		},
	}
}

// OllamaTools adapts a tool list, preserving order. An empty list yields nil.
func OllamaTools(tools []mcptypes.Tool) []api.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, OllamaTool(t))
	}
	return out
}

func ollamaParameters(schema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Properties: make(map[string]api.ToolProperty, len(schema.Properties)),
	}

	if schema.Defs != nil {
		params.Defs = schema.Defs
	}

	for name, prop := range schema.Properties {
		params.Properties[name] = ollamaProperty(prop)
	}

	return params
}

func ollamaProperty(raw any) api.ToolProperty {
	prop := api.ToolProperty{}

	m, ok := raw.(map[string]any)
	if !ok {
		// Typed schema values arrive as structs; go through JSON
		data, err := json.Marshal(raw)
		if err != nil {
			return prop
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = api.PropertyType(types)
	}

	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}

	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}

	if items, ok := m["items"]; ok {
		prop.Items = items
	}

	if anyOf, ok := m["anyOf"].([]any); ok {
		props := make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			props = append(props, ollamaProperty(item))
		}
		prop.AnyOf = props
	}

	return prop
}

// OpenAITool adapts one tool for the chat completions API. OpenRouter
// accepts the same shape.
func OpenAITool(tool mcptypes.Tool) openai.ChatCompletionToolUnionParam {
	params := openai.FunctionParameters{
		"type":       tool.InputSchema.Type,
		"properties": tool.InputSchema.Properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		params["required"] = tool.InputSchema.Required
	}
	if tool.InputSchema.Defs != nil {
		params["$defs"] = tool.InputSchema.Defs
	}

	return openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        tool.Name,
		Description: openai.String(tool.Description),
		Parameters:  params,
	})
}

func OpenAITools(tools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, OpenAITool(t))
	}
	return out
}

// AnthropicTool adapts one tool for the messages API
func AnthropicTool(tool mcptypes.Tool) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{
		Properties: tool.InputSchema.Properties,
	}
	if len(tool.InputSchema.Required) > 0 {
		schema.Required = tool.InputSchema.Required
	}
	if tool.InputSchema.Defs != nil {
		schema.ExtraFields = map[string]any{
			"$defs": tool.InputSchema.Defs,
		}
	}

	out := anthropic.ToolUnionParamOfTool(schema, tool.Name)
	if tool.Description != "" {
		out.OfTool.Description = anthropic.String(tool.Description)
	}
	return out
}

func AnthropicTools(tools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, AnthropicTool(t))
	}
	return out
}
