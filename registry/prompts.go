package registry

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

type promptArg struct {
	name        string
	description string
}

type prompt struct {
	name        string
	description string
	args        []promptArg
	render      func(args map[string]string) string
}

func (r *Registry) registerPrompts() {
	r.prompts = []prompt{
		{
			name:        "create_onboarding_plan",
			description: "Generates an onboarding checklist for a new employee based on their ID.",
			args:        []promptArg{{name: "user_id", description: "Employee ID, e.g. emp_101"}},
			render: func(args map[string]string) string {
				id := args["user_id"]
				return fmt.Sprintf("Please create an Onboarding Plan for the employee with ID: %s.\n\n"+
					"First, READ the employee's profile using the 'memodb://employees/%s' resource.\n"+
					"Then, based on their 'role' and 'department', generate a Day 1 checklist.", id, id)
			},
		},
	}
}

// ListPrompts returns prompt descriptors
func (r *Registry) ListPrompts() []mcp.Prompt {
	out := make([]mcp.Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(p.description)}
		for _, a := range p.args {
			opts = append(opts, mcp.WithArgument(a.name,
				mcp.ArgumentDescription(a.description),
				mcp.RequiredArgument(),
			))
		}
		out = append(out, mcp.NewPrompt(p.name, opts...))
	}
	return out
}

// GetPrompt renders the named prompt. All declared arguments are required.
func (r *Registry) GetPrompt(name string, args map[string]string) (string, error) {
	for _, p := range r.prompts {
		if p.name != name {
			continue
		}
		for _, a := range p.args {
			if args[a.name] == "" {
				return "", fmt.Errorf("prompt %s: missing argument %q", name, a.name)
			}
		}
		return p.render(args), nil
	}
	return "", fmt.Errorf("prompt %s: %w", name, ErrNotFound)
}
