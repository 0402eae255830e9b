// Package ui is the line-oriented chat console.
//
// The console reads one user turn per line, hands it to the conversation
// loop, and prints tool activity as panels while the turn runs. Lines that
// start with "/" are console commands and never reach the model.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"memodesk/config"
	"memodesk/mcp"
	"memodesk/model"

	"github.com/atotto/clipboard"
)

const defaultWidth = 80

// Session is the part of the transport session the console uses directly.
type Session interface {
	ListResources(ctx context.Context) ([]mcp.ResourceDescriptor, error)
	ReadResource(ctx context.Context, uri string) (string, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) (string, error)
}

// Console runs the interactive prompt
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	session Session
	width   int
	copy    func(string) error

	// Lines are read in the background so a blocked read never delays
	// cancellation. The channel is closed after the first read error.
	lines      chan readResult
	readerOnce sync.Once

	lastAnswer string
}

type readResult struct {
	line string
	err  error
}

// NewConsole creates a console reading turns from in and writing to out.
func NewConsole(in io.Reader, out io.Writer, session Session) *Console {
	return &Console{
		in:      bufio.NewReader(in),
		out:     out,
		session: session,
		width:   defaultWidth,
		copy:    clipboard.WriteAll,
		lines:   make(chan readResult),
	}
}

// SetWidth sets the render width for panels and markdown.
func (c *Console) SetWidth(width int) {
	if width > 0 {
		c.width = width
	}
}

// SetClipboard replaces the clipboard writer used by /copy.
func (c *Console) SetClipboard(fn func(string) error) {
	c.copy = fn
}

// LastAnswer returns the most recent final answer.
func (c *Console) LastAnswer() string {
	return c.lastAnswer
}

// Observer returns the callbacks that print tool activity during a turn.
func (c *Console) Observer() model.TurnObserver {
	return model.TurnObserver{
		OnModelCall: func(round int, toolsOffered bool) {
			switch {
			case !toolsOffered && round > 0:
				c.println(DimStyle.Render("Tool round limit reached, asking for a final answer..."))
			default:
				c.println(DimStyle.Render("Thinking..."))
			}
		},
		OnToolCall: func(call model.ToolCall) {
			c.println(RenderToolCall(call, c.width))
		},
		OnToolResult: func(call model.ToolCall, content string, isError bool) {
			c.println(RenderToolResult(call.Name, content, isError, c.width))
		},
	}
}

// Banner prints the startup line.
func (c *Console) Banner(serverName, providerName, modelName string, toolCount int) {
	c.println(TitleStyle.Render(serverName) + DimStyle.Render(fmt.Sprintf(" · %s/%s · %d tools", providerName, modelName, toolCount)))
	c.println(FormatFooter("/help", "Commands", "q", "Quit"))
}

// Run reads turns until the user quits or input ends. It returns nil on
// q, exit or EOF, and a *model.TransportError when the tool server channel
// is lost. Backend failures are printed and the prompt continues. Canceling
// ctx ends Run even while it waits for input.
func (c *Console) Run(ctx context.Context, loop *model.Loop) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(c.out, UserStyle.Render("You:")+" ")
		line, readErr, err := c.readLine(ctx)
		if err != nil {
			fmt.Fprintln(c.out)
			return err
		}
		if readErr != nil && line == "" {
			fmt.Fprintln(c.out)
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case isQuit(input):
			return nil
		case strings.HasPrefix(input, "/"):
			if err := c.runCommand(ctx, loop, input); err != nil {
				return err
			}
		default:
			if err := c.turn(ctx, loop, input); err != nil {
				return err
			}
		}
	}
}

// readLine waits for the next input line. err is set only when ctx ends
// first; readErr is the error from the input itself.
func (c *Console) readLine(ctx context.Context) (line string, readErr, err error) {
	c.readerOnce.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF, nil
		}
		return r.line, r.err, nil
	}
}

func (c *Console) readLines() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		c.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// turn runs one conversation turn and prints its outcome.
func (c *Console) turn(ctx context.Context, loop *model.Loop, input string) error {
	result, err := loop.Turn(ctx, input)

	var transportErr *model.TransportError
	var backendErr *model.BackendError
	switch {
	case errors.As(err, &transportErr):
		c.println(ErrorStyle.Render("Connection to the tool server was lost: " + transportErr.Err.Error()))
		return err
	case errors.As(err, &backendErr):
		c.println(ErrorStyle.Render("Error: " + backendErr.Error()))
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case err != nil:
		c.println(ErrorStyle.Render("Error: " + err.Error()))
		return nil
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] turn finished: rounds=%d tool_calls=%d capped=%v", result.Rounds, len(result.ToolCalls), result.Capped)
	}

	c.lastAnswer = result.Answer
	c.println(AssistantStyle.Render("Assistant:"))
	c.println(RenderMarkdown(result.Answer, c.width))
	return nil
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "q", "exit":
		return true
	}
	return false
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}
