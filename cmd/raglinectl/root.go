package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"ragline/internal/app"
	"ragline/internal/config"
	"ragline/pkg/logx"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "raglinectl",
	Short:         "Manage and query the document index",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(ingestCmd, queryCmd, batchCmd, docsCmd, statsCmd, clearCmd)
}

// buildApp loads configuration and wires the pipeline for one command
// invocation. mutate lets commands override config before wiring.
func buildApp(ctx context.Context, mutate func(*config.Config)) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	logx.Init(cfg.Prod, level)

	return app.New(ctx, cfg)
}
