// Package cmd implements the memodesk CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"memodesk/config"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	configPath string
	debugFlag  bool
)

// rootCmd runs the chat console when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "memodesk",
	Short:         "HR help desk chat over an MCP tool server",
	Long:          "memodesk connects a chat model to the Enterprise Demo System MCP server\n(employee records, bonus calculation, password resets, telemetry, SQL).",
	RunE:          runChat,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/memodesk/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write a debug log to <data_dir>/debug.log")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config and starts debug logging when requested.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.InitDebugLog(cfg.DataDir(), debugFlag)
	return cfg, nil
}
