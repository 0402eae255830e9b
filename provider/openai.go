package provider

import (
	"context"
	"errors"
	"fmt"

	"memodesk/config"
	"memodesk/mcp"
	"memodesk/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIProvider implements model.Provider using OpenAI's official Go SDK.
// Any chat completions compatible endpoint works through BaseURL.
type OpenAIProvider struct {
	client  openai.Client
	name    string
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: DefaultOpenAIBaseURL)
//   - apiKey: OpenAI API key (required)
//   - model: Initial model to use (default: DefaultOpenAIModel)
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newOpenAICompatible(string(ProviderTypeOpenAI), baseURL, model,
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	), nil
}

func newOpenAICompatible(name, baseURL, model string, opts ...option.RequestOption) *OpenAIProvider {
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		name:    name,
		model:   model,
		baseURL: baseURL,
	}
}

// Chat implements model.Provider.Chat with a single non-streaming
// chat completion.
//
// The history is converted with ConvertToOpenAIMessages, so assistant tool
// requests and tool results keep their call IDs. The first choice of the
// reply becomes the returned assistant message. ToolChoiceNone maps to
// tool_choice "none".
func (p *OpenAIProvider) Chat(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, opts model.ChatOptions) (model.Message, error) {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(p.model),
	}
	if len(tools) > 0 {
		params.Tools = mcp.OpenAITools(tools)
		if opts.ToolChoiceNone {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoNone)),
			}
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] %s chat: model=%s messages=%d tools=%d", p.name, p.model, len(messages), len(tools))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Message{}, fmt.Errorf("%s chat failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return model.Message{}, errors.New(p.name + " returned no choices")
	}

	choice := resp.Choices[0].Message
	reply := model.Message{
		Role:    model.RoleAssistant,
		Content: choice.Content,
	}
	for _, tc := range choice.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: ParseToolArguments(tc.Function.Arguments),
		})
	}
	return reply, nil
}

// Name implements model.Provider.Name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// GetModel implements model.Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// SetModel implements model.Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// BaseURL returns the endpoint the provider talks to.
func (p *OpenAIProvider) BaseURL() string {
	return p.baseURL
}

// Ping implements model.Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("%s ping failed: %w", p.name, err)
	}
	return nil
}

// ConvertToOpenAIMessages converts model.Message history to OpenAI format.
//
// Assistant messages that requested tools become assistant messages with
// function tool calls (arguments re-encoded as JSON). Tool messages become
// tool messages keyed by their ToolCallID. Unknown roles are sent as user
// messages.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleUser:
			result[i] = openai.UserMessage(msg.Content)
		case model.RoleAssistant:
			if !msg.HasToolCalls() {
				result[i] = openai.AssistantMessage(msg.Content)
				continue
			}
			result[i] = openAIToolRequest(msg)
		case model.RoleTool:
			result[i] = openai.ToolMessage(msg.Content, msg.ToolCallID)
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}

	return result
}

func openAIToolRequest(msg model.Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: marshalToolArguments(call.Arguments),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}
