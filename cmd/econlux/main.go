// Command econlux runs the economic dashboard backend and its terminal
// helpers.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/econlux-go/internal/app"
	"github.com/comigor/econlux-go/internal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "econlux",
	Short: "AI economic dashboard backend",
	Long: `econlux serves the economic dashboard API: market indicators, a
tool-calling chat copilot that fetches series and builds charts, and
single-shot Q&A.

Configuration is read from config.yaml (or CONFIG_PATH) and ECONLUX_*
environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, askCmd, briefCmd, mcpCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadApp reads the configuration, points logging at logOut and wires the
// application.
func loadApp(logOut io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	app.SetupLogging(logOut, cfg.Log)
	return app.New(cfg)
}
