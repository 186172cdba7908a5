package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/econlux-go/internal/app"
	"github.com/comigor/econlux-go/internal/config"
	"github.com/comigor/econlux-go/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the dashboard tools over MCP on stdio",
	Long: `mcp speaks JSON-RPC on stdin/stdout. Logs go to stderr so that
stdout carries nothing but protocol messages.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runMCP(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

// runMCP wires the application with logging on logOut and serves the tool
// catalog over in/out until the input closes or ctx ends.
func runMCP(ctx context.Context, cfg *config.Config, in io.Reader, out, logOut io.Writer) error {
	app.SetupLogging(logOut, cfg.Log)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := mcpserver.New(cfg.App.Name, version, a.Tools)
	if err != nil {
		return err
	}
	if err := mcpserver.ServeStdio(ctx, s, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
