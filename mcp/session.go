package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"memodesk/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ClientName    = "memodesk"
	ClientVersion = "1.0.0"

	closeTimeout = 1 * time.Second
)

// ErrTransportClosed is returned once the channel to the server is closed or broken.
var ErrTransportClosed = errors.New("transport closed")

var errServerExited = errors.New("server process exited")

// ToolResult is the textual outcome of a tool call. IsError reports a
// tool-level failure, which is still a successful exchange.
type ToolResult struct {
	ToolName string
	Content  string
	IsError  bool
}

// ResourceDescriptor describes a static resource or a resource template
type ResourceDescriptor struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Template    bool
}

// ServerOptions describes how to spawn a stdio server
type ServerOptions struct {
	Command     string
	Args        []string
	Env         map[string]string
	CallTimeout time.Duration
}

// Session is one initialized connection to an MCP server.
type Session struct {
	client  *client.Client
	cmd     *exec.Cmd
	timeout time.Duration
	info    mcptypes.Implementation

	// down is canceled once the server process is gone. Nil for in-process
	// sessions.
	down     context.Context
	markDown context.CancelCauseFunc

	mu       sync.Mutex
	closed   bool
	closeErr error
}

// Connect spawns the server command, talks to it over stdio and runs the
// initialize handshake.
func Connect(ctx context.Context, opts ServerOptions) (*Session, error) {
	if opts.Command == "" {
		return nil, fmt.Errorf("server command is required")
	}

	env := buildEnv(opts.Env)
	s := &Session{timeout: opts.CallTimeout}
	s.down, s.markDown = context.WithCancelCause(context.Background())

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		s.cmd = cmd
		return cmd, nil
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Connect: Spawning %s %v", opts.Command, opts.Args)
	}

	c, err := client.NewStdioMCPClientWithOptions(
		opts.Command,
		env,
		opts.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start server %s: %w", opts.Command, err)
	}
	s.client = c

	if s.cmd != nil && s.cmd.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Connect: Server running with PID %d", s.cmd.Process.Pid)
	}

	if stderr, ok := client.GetStderr(c); ok {
		go s.watch(stderr)
	}

	if _, err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// NewInProcessSession connects to a server living in the same process.
func NewInProcessSession(ctx context.Context, srv *server.MCPServer, callTimeout time.Duration) (*Session, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start in-process client: %w", err)
	}

	s := &Session{client: c, timeout: callTimeout}
	if _, err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// WithSession opens a session, hands it to fn and closes it on every exit
// path, panics included.
func WithSession(ctx context.Context, connect func(context.Context) (*Session, error), fn func(*Session) error) error {
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// Initialize performs the protocol handshake and returns the server's capabilities.
func (s *Session) Initialize(ctx context.Context) (*mcptypes.InitializeResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: mcptypes.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    ClientName,
				Version: ClientVersion,
			},
		},
	}

	res, err := s.client.Initialize(ctx, req)
	if err != nil {
		return nil, s.classify("initialize", err)
	}
	s.info = res.ServerInfo

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Initialized with %s %s (protocol %s)",
			res.ServerInfo.Name, res.ServerInfo.Version, res.ProtocolVersion)
	}

	return res, nil
}

// ServerInfo is the server identity reported at initialize
func (s *Session) ServerInfo() mcptypes.Implementation {
	return s.info
}

func (s *Session) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return nil, s.classify("list tools", err)
	}
	return res.Tools, nil
}

// ListResources returns static resources followed by resource templates.
func (s *Session) ListResources(ctx context.Context) ([]ResourceDescriptor, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.ListResources(ctx, mcptypes.ListResourcesRequest{})
	if err != nil {
		return nil, s.classify("list resources", err)
	}

	out := make([]ResourceDescriptor, 0, len(res.Resources))
	for _, r := range res.Resources {
		out = append(out, ResourceDescriptor{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}

	tmpl, err := s.client.ListResourceTemplates(ctx, mcptypes.ListResourceTemplatesRequest{})
	if err != nil {
		return nil, s.classify("list resource templates", err)
	}
	for _, t := range tmpl.ResourceTemplates {
		uri := ""
		if t.URITemplate != nil {
			uri = t.URITemplate.Raw()
		}
		out = append(out, ResourceDescriptor{
			URI:         uri,
			Name:        t.Name,
			Description: t.Description,
			MIMEType:    t.MIMEType,
			Template:    true,
		})
	}

	return out, nil
}

func (s *Session) ListPrompts(ctx context.Context) ([]mcptypes.Prompt, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	res, err := s.client.ListPrompts(ctx, mcptypes.ListPromptsRequest{})
	if err != nil {
		return nil, s.classify("list prompts", err)
	}
	return res.Prompts, nil
}

// ReadResource returns the text of the first text part of the resource.
func (s *Session) ReadResource(ctx context.Context, uri string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req := mcptypes.ReadResourceRequest{}
	req.Params.URI = uri

	res, err := s.client.ReadResource(ctx, req)
	if err != nil {
		return "", s.classify("read resource", err)
	}

	for _, c := range res.Contents {
		switch v := c.(type) {
		case mcptypes.TextResourceContents:
			return v.Text, nil
		case *mcptypes.TextResourceContents:
			return v.Text, nil
		}
	}
	if len(res.Contents) > 0 {
		return fmt.Sprintf("[binary resource %s]", uri), nil
	}
	return "", nil
}

// CallTool invokes a tool. Tool-level failures come back as a ToolResult with
// IsError set; only exchange failures are returned as errors.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req := mcptypes.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] CallTool: %s %v", name, args)
	}

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, s.classify("call tool "+name, err)
	}

	return &ToolResult{
		ToolName: name,
		Content:  contentText(res.Content),
		IsError:  res.IsError,
	}, nil
}

// GetPrompt renders a prompt and joins its text messages.
func (s *Session) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	req := mcptypes.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.GetPrompt(ctx, req)
	if err != nil {
		return "", s.classify("get prompt "+name, err)
	}

	var parts []string
	for _, m := range res.Messages {
		if text, ok := textOf(m.Content); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Close shuts the session down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.closeErr
	}
	s.closed = true
	s.mu.Unlock()

	var closeErr error
	if s.client != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Close: Closing client (%s timeout)", closeTimeout)
		}

		done := make(chan error, 1)
		go func() {
			done <- s.client.Close()
		}()

		select {
		case err := <-done:
			closeErr = err
		case <-time.After(closeTimeout):
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Close: Timed out, killing server")
			}
		}
	}

	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[MCP] Close: Error killing PID %d: %v", s.cmd.Process.Pid, err)
			}
		}
	}

	s.mu.Lock()
	s.closeErr = closeErr
	s.mu.Unlock()

	return closeErr
}

// watch drains the server's stderr into the debug log. The pipe reaches EOF
// when the process exits, which marks the session down.
func (s *Session) watch(stderr io.Reader) {
	r := bufio.NewReader(stderr)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] server: %s", line)
		}
		if err != nil {
			break
		}
	}

	if config.DebugLog != nil && !s.isClosed() {
		config.DebugLog.Printf("[MCP] Server process exited")
	}
	s.markDown(errServerExited)
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// serverGone reports why the server process is no longer usable, or nil.
func (s *Session) serverGone() error {
	if s.down == nil || s.down.Err() == nil {
		return nil
	}
	return context.Cause(s.down)
}

func (s *Session) checkOpen() error {
	if s.isClosed() {
		return ErrTransportClosed
	}
	if cause := s.serverGone(); cause != nil {
		return fmt.Errorf("%w: %v", ErrTransportClosed, cause)
	}
	return nil
}

// callContext bounds a call by the call timeout and ends it early when the
// server process goes away.
func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	if s.down == nil {
		return ctx, cancel
	}

	stop := context.AfterFunc(s.down, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// classify marks channel failures as ErrTransportClosed and leaves every
// other failure as a plain error.
func (s *Session) classify(op string, err error) error {
	if cause := s.serverGone(); cause != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] %s: server gone: %v", op, err)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrTransportClosed, cause)
	}
	if isBrokenChannel(err) {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] %s: channel broken: %v", op, err)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrTransportClosed, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: timed out after %s: %w", op, s.timeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isBrokenChannel(err error) bool {
	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "file already closed") ||
		strings.Contains(msg, "transport closed") ||
		strings.Contains(msg, "transport has been closed")
}

// contentText returns the first text part, or the JSON of all parts when
// there is none.
func contentText(content []mcptypes.Content) string {
	for _, c := range content {
		if text, ok := textOf(c); ok {
			return text
		}
	}
	if len(content) == 0 {
		return ""
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Sprintf("%v", content)
	}
	return string(data)
}

func textOf(c mcptypes.Content) (string, bool) {
	switch v := c.(type) {
	case mcptypes.TextContent:
		return v.Text, true
	case *mcptypes.TextContent:
		return v.Text, true
	}
	return "", false
}

func buildEnv(extra map[string]string) []string {
	// Keep PATH and friends from the parent
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
