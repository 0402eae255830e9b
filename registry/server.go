package registry

import (
	"context"
	"errors"

	"memodesk/config"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer renders the registry as an MCP server. Every tool, resource and
// prompt is dispatched back through the registry.
func (r *Registry) MCPServer() *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	for _, t := range r.tools {
		name := t.name
		s.AddTool(t.descriptor(), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := r.CallTool(ctx, name, req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(text), nil
			}
			return mcp.NewToolResultText(text), nil
		})
	}

	resources := r.ListResources()
	for i := range resources {
		s.AddResource(resources[i], r.handleRead)
	}

	templates := r.ListResourceTemplates()
	for i := range templates {
		s.AddResourceTemplate(templates[i], r.handleRead)
	}

	for _, p := range r.ListPrompts() {
		name := p.Name
		s.AddPrompt(p, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			text, err := r.GetPrompt(name, req.Params.Arguments)
			if err != nil {
				return nil, err
			}
			return mcp.NewGetPromptResult("", []mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			}), nil
		})
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Registry] Server ready: %d tools, %d resources, %d templates, %d prompts",
			len(r.tools), len(resources), len(templates), len(r.prompts))
	}

	return s
}

// handleRead serves resource reads. A record miss is returned as content so
// the model sees the text; an unknown URI is a protocol error.
func (r *Registry) handleRead(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	text, err := r.ReadResource(ctx, uri)
	if err != nil && !(errors.Is(err, ErrNotFound) && text != "") {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
