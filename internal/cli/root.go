// Package cli implements the aftercare command-line client.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dentalcare/aftercare/internal/app"
	"github.com/dentalcare/aftercare/internal/config"
)

var formatFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "aftercare",
	Short:        "Dental aftercare assistant",
	Long:         "Ask the aftercare assistant questions, preview knowledge retrieval and manage the database schema.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: text or json")
}

// loadConfig reads and validates configuration and installs a logger on
// stderr so stdout carries only command output.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	app.SetupLogger(cfg.Log, os.Stderr)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{})
}
