package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"memodesk/config"
	"memodesk/registry"
	"memodesk/storage"
	"memodesk/telemetry"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Enterprise Demo System MCP server on stdio",
	Long:  "Run the MCP server on stdin/stdout. Nothing else is written to stdout; logs go to stderr or the debug log.",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Seed(ctx); err != nil {
		return err
	}

	reg := registry.New(store, telemetry.NewHostSource())

	// stdout carries the protocol
	errLog := config.DebugLog
	if errLog == nil {
		errLog = log.New(os.Stderr, "[MCP] ", log.LstdFlags)
	}
	errLog.Printf("serving %s %s from %s", registry.ServerName, registry.ServerVersion, cfg.DatabasePath())

	if err := server.ServeStdio(reg.MCPServer(), server.WithErrorLogger(errLog)); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}
