package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"memodesk/mcp"
	"memodesk/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(c *Console, ctx context.Context, loop *model.Loop, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"/tools", "/tools", "List the tools offered to the model", (*Console).cmdTools},
		{"/resources", "/resources", "List readable resources", (*Console).cmdResources},
		{"/read", "/read <uri>", "Print a resource, e.g. memodb://employees/emp_101", (*Console).cmdRead},
		{"/prompt", "/prompt <name> [key=value ...]", "Fetch a server prompt and send it as your message", (*Console).cmdPrompt},
		{"/history", "/history", "Show the conversation history", (*Console).cmdHistory},
		{"/copy", "/copy", "Copy the last answer to the clipboard", (*Console).cmdCopy},
		{"/help", "/help", "Show this help", (*Console).cmdHelp},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func suggestCommand(name string) string {
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = cmd.name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// runCommand executes a slash command line. Only transport failures are
// returned; everything else is printed.
func (c *Console) runCommand(ctx context.Context, loop *model.Loop, line string) error {
	fields := strings.Fields(line)
	name := strings.ToLower(fields[0])

	cmd, ok := lookupCommand(name)
	if !ok {
		msg := fmt.Sprintf("Unknown command %s.", name)
		if s := suggestCommand(name); s != "" {
			msg += fmt.Sprintf(" Did you mean %s?", s)
		}
		c.println(WarningStyle.Render(msg + " Type /help for commands."))
		return nil
	}
	return cmd.run(c, ctx, loop, fields[1:])
}

// sessionError reports a failed session call and escalates a lost channel.
func (c *Console) sessionError(op string, err error) error {
	if errors.Is(err, mcp.ErrTransportClosed) {
		return &model.TransportError{Tool: op, Err: err}
	}
	c.println(ErrorStyle.Render("Error: " + err.Error()))
	return nil
}

func (c *Console) cmdTools(ctx context.Context, loop *model.Loop, _ []string) error {
	c.println(RenderTools(loop.Tools(), c.width))
	return nil
}

func (c *Console) cmdResources(ctx context.Context, _ *model.Loop, _ []string) error {
	resources, err := c.session.ListResources(ctx)
	if err != nil {
		return c.sessionError("resources/list", err)
	}
	c.println(RenderResources(resources, c.width))
	return nil
}

func (c *Console) cmdRead(ctx context.Context, _ *model.Loop, args []string) error {
	if len(args) != 1 {
		c.println(WarningStyle.Render("Usage: /read <uri>"))
		return nil
	}
	text, err := c.session.ReadResource(ctx, args[0])
	if err != nil {
		return c.sessionError("resources/read", err)
	}
	c.println(RenderToolResult(args[0], text, false, c.width))
	return nil
}

func (c *Console) cmdPrompt(ctx context.Context, loop *model.Loop, args []string) error {
	if len(args) == 0 {
		c.println(WarningStyle.Render("Usage: /prompt <name> [key=value ...]"))
		return nil
	}
	promptArgs := make(map[string]string)
	for _, kv := range args[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			c.println(WarningStyle.Render(fmt.Sprintf("Ignoring %q, expected key=value", kv)))
			continue
		}
		promptArgs[key] = value
	}

	text, err := c.session.GetPrompt(ctx, args[0], promptArgs)
	if err != nil {
		return c.sessionError("prompts/get", err)
	}
	c.println(DimStyle.Render(text))
	return c.turn(ctx, loop, text)
}

func (c *Console) cmdHistory(_ context.Context, loop *model.Loop, _ []string) error {
	c.println(RenderHistory(loop.History().Messages(), c.width))
	return nil
}

func (c *Console) cmdCopy(context.Context, *model.Loop, []string) error {
	if c.lastAnswer == "" {
		c.println(WarningStyle.Render("Nothing to copy yet."))
		return nil
	}
	if err := c.copy(c.lastAnswer); err != nil {
		c.println(ErrorStyle.Render("Error: clipboard unavailable: " + err.Error()))
		return nil
	}
	c.println(DimStyle.Render("Copied last answer to clipboard."))
	return nil
}

func (c *Console) cmdHelp(context.Context, *model.Loop, []string) error {
	lines := []string{TitleStyle.Render("Commands")}
	for _, cmd := range commands {
		lines = append(lines, fmt.Sprintf("  %-32s %s", cmd.usage, cmd.help))
	}
	lines = append(lines, "", FormatFooter("q", "Quit", "exit", "Quit"))
	c.println(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return nil
}
