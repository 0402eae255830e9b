// Package registry holds the tools, resources and prompts exposed by the
// Enterprise Demo System and renders them as an MCP server.
package registry

import (
	"context"
	"errors"
	"fmt"

	"memodesk/config"
	"memodesk/storage"
	"memodesk/telemetry"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
)

const (
	ServerName    = "Enterprise Demo System"
	ServerVersion = "1.0.0"
)

var (
	// ErrNotFound is returned when a resource key does not resolve
	ErrNotFound = errors.New("not found")
	// ErrToolExecution wraps invalid arguments and internal tool faults
	ErrToolExecution = errors.New("tool execution failed")
)

// EmployeeStore is the record store the registry reads and mutates.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*storage.Employee, error)
	ListEmployees(ctx context.Context) ([]storage.Employee, error)
	ResetPassword(ctx context.Context, id, tempPassword string) (*storage.Employee, error)
	Query(ctx context.Context, query string) (*storage.QueryResult, error)
}

type toolFunc func(ctx context.Context, args map[string]any) (string, error)

type tool struct {
	name        string
	description string
	params      []Param
	run         toolFunc
}

// Registry dispatches tool calls, resource reads and prompt requests by name.
type Registry struct {
	store     EmployeeStore
	telemetry telemetry.Source
	validate  *validator.Validate

	tools     []*tool
	toolIndex map[string]*tool

	resources []staticResource
	templates []templateResource
	prompts   []prompt

	// newPassword generates temporary passwords for reset_password
	newPassword func() (string, error)
}

// New builds a registry over an explicitly owned store and telemetry source.
func New(store EmployeeStore, stats telemetry.Source) *Registry {
	r := &Registry{
		store:       store,
		telemetry:   stats,
		validate:    newValidator(),
		toolIndex:   make(map[string]*tool),
		newPassword: generateTempPassword,
	}
	r.registerTools()
	r.registerResources()
	r.registerPrompts()
	return r
}

func (r *Registry) addTool(t *tool) {
	if _, exists := r.toolIndex[t.name]; exists {
		panic(fmt.Sprintf("registry: duplicate tool %q", t.name))
	}
	r.tools = append(r.tools, t)
	r.toolIndex[t.name] = t
}

// ListTools returns tool descriptors in registration order
func (r *Registry) ListTools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.descriptor())
	}
	return out
}

func (t *tool) descriptor() mcp.Tool {
	props := make(map[string]any, len(t.params))
	required := []string{}
	for _, p := range t.params {
		prop := map[string]any{
			"type":        string(p.Kind),
			"description": p.Description,
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return mcp.Tool{
		Name:        t.name,
		Description: t.description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

// CallTool runs the named tool and always yields text. When err is non-nil
// the text is the failure description and err wraps ErrToolExecution.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Registry] Tool %s panicked: %v", name, rec)
			}
			text = fmt.Sprintf("Error: tool %s failed: %v", name, rec)
			err = fmt.Errorf("%w: %s panicked: %v", ErrToolExecution, name, rec)
		}
	}()

	t, ok := r.toolIndex[name]
	if !ok {
		text = fmt.Sprintf("Error: unknown tool %q", name)
		if s := r.suggestTool(name); s != "" {
			text += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return text, fmt.Errorf("%w: unknown tool %q", ErrToolExecution, name)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Registry] Calling %s with %v", name, args)
	}

	coerced, err := coerceArgs(t.params, args)
	if err != nil {
		return "Error: " + err.Error(), fmt.Errorf("%w: %s: %v", ErrToolExecution, name, err)
	}

	out, err := t.run(ctx, coerced)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Registry] Tool %s failed: %v", name, err)
		}
		return "Error: " + err.Error(), fmt.Errorf("%w: %s: %v", ErrToolExecution, name, err)
	}

	return out, nil
}

func (r *Registry) suggestTool(name string) string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
