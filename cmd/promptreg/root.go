package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg/filestore"
	"github.com/skosovsky/promptreg/internal/config"
	"github.com/skosovsky/promptreg/internal/logging"
	"github.com/skosovsky/promptreg/registry"
)

// app carries the persistent flags and the state built from them.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "promptreg",
		Short: "Prompt template registry served over MCP",
		Long: `promptreg stores prompt templates as JSON files and serves them over the
Model Context Protocol.

Prompts in the project directory override prompts of the same id in the
user-global defaults directory. Settings come from promptreg.toml and
PROMPT_REGISTRY_* environment variables (a .env file is read first).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newRenderCmd(a),
		newBuildCmd(a),
	)
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// registry builds the layered registry from the loaded config.
// An empty global_dir disables the defaults layer.
func (a *app) registry() *registry.Registry {
	project := filestore.New(a.cfg.ProjectDir, filestore.WithLogger(a.logger.Named("project")))
	var global *filestore.Store
	if a.cfg.GlobalDir != "" {
		global = filestore.New(a.cfg.GlobalDir, filestore.WithLogger(a.logger.Named("global")))
	}
	return registry.New(project, global)
}
