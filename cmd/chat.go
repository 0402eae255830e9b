package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"memodesk/config"
	"memodesk/mcp"
	"memodesk/model"
	"memodesk/provider"
	"memodesk/ui"

	"github.com/spf13/cobra"
)

var (
	chatModel    string
	chatProvider string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the model; tools run on the MCP server",
	RunE:  runChat,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Flags().StringVarP(&chatModel, "model", "m", "", "Model name (overrides config)")
		c.Flags().StringVarP(&chatProvider, "provider", "p", "", "ollama | openai | openrouter | anthropic (overrides config)")
	}
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyChatFlags(cfg)

	p, err := provider.FromConfig(cfg)
	if err != nil {
		return err
	}
	if op, ok := p.(*provider.OllamaProvider); ok && !op.SupportsToolCalling() {
		fmt.Fprintln(os.Stderr, ui.WarningStyle.Render(fmt.Sprintf(
			"Warning: %s may not support tool calling. Recommended: llama3.1, llama3.2, qwen2.5, mistral", op.GetModel())))
	}

	opts, err := serverOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connect := func(ctx context.Context) (*mcp.Session, error) {
		return mcp.Connect(ctx, opts)
	}

	err = mcp.WithSession(ctx, connect, func(s *mcp.Session) error {
		tools, err := s.ListTools(ctx)
		if err != nil {
			return err
		}

		console := ui.NewConsole(os.Stdin, os.Stdout, s)
		loop := model.NewLoop(p, s, tools, model.LoopOptions{
			SystemPrompt:  cfg.SystemPrompt,
			MaxToolRounds: cfg.MaxToolRounds,
			Observer:      console.Observer(),
		})

		console.Banner(s.ServerInfo().Name, p.Name(), p.GetModel(), len(tools))
		return console.Run(ctx, loop)
	})

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyChatFlags applies --provider and --model on top of the loaded
// configuration.
func applyChatFlags(cfg *config.Config) {
	if chatProvider != "" {
		cfg.SwitchProvider(chatProvider)
	}
	if chatModel != "" {
		cfg.ModelName = chatModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = config.APIKeyEnvFor(cfg.ProviderType)
	}
}

// serverOptions resolves the MCP server command. Without a configured
// command the current binary is started with "serve".
func serverOptions(cfg *config.Config) (mcp.ServerOptions, error) {
	opts := mcp.ServerOptions{
		Command:     cfg.ServerCommand,
		Args:        cfg.ServerArgs,
		Env:         cfg.ServerEnv,
		CallTimeout: cfg.ToolTimeout,
	}
	if opts.Command != "" {
		return opts, nil
	}

	self, err := os.Executable()
	if err != nil {
		return opts, fmt.Errorf("cannot locate own executable for the server: %w", err)
	}
	opts.Command = self
	opts.Args = []string{"serve"}
	if configPath != "" {
		opts.Args = append(opts.Args, "--config", configPath)
	}
	if config.Debug {
		opts.Args = append(opts.Args, "--debug")
	}
	return opts, nil
}
