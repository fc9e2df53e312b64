package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg/mcpserver"
	"github.com/skosovsky/promptreg/seed"
	"github.com/skosovsky/promptreg/watch"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over MCP on stdin/stdout",
		Long: `Starts the MCP server on stdio.

On start the default prompts are copied into the global defaults directory
(seed_on_start), every active prompt is registered, and both directories are
watched so files edited by hand are picked up without a restart (watch).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, w, err := a.bootstrap(ctx)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}
			a.logger.Info("serving on stdio",
				zap.String("project_dir", a.cfg.ProjectDir),
				zap.String("global_dir", a.cfg.GlobalDir))
			err = srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// bootstrap seeds defaults, builds the server, registers prompts and starts the watcher.
// The returned watcher is nil when watching is disabled; the caller stops it.
func (a *app) bootstrap(ctx context.Context) (*mcpserver.Server, *watch.Watcher, error) {
	reg := a.registry()
	if err := reg.Project().EnsureDir(); err != nil {
		return nil, nil, err
	}

	src, err := seed.Open(a.cfg.DefaultsSrcDir)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.SeedOnStart && reg.Global() != nil {
		rep, err := src.Install(ctx, reg.Global())
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("default prompts installed",
			zap.Strings("copied", rep.Copied), zap.Int("skipped", len(rep.Skipped)))
	}

	srv := mcpserver.New(reg,
		mcpserver.WithLogger(a.logger.Named("mcp")),
		mcpserver.WithSeed(src),
		mcpserver.WithServerInfo(a.cfg.ServerName, a.cfg.ServerVersion),
	)
	if err := srv.Sync(ctx); err != nil {
		return nil, nil, err
	}
	if !a.cfg.Watch {
		return srv, nil, nil
	}

	dirs := []string{a.cfg.ProjectDir}
	if reg.Global() != nil {
		dirs = append(dirs, a.cfg.GlobalDir)
	}
	w, err := watch.New(dirs, func(ctx context.Context) {
		if err := srv.Sync(ctx); err != nil {
			a.logger.Warn("resync after file change failed", zap.Error(err))
		}
	}, watch.WithDebounce(a.cfg.WatchDebounce), watch.WithLogger(a.logger.Named("watch")))
	if err != nil {
		return nil, nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, nil, err
	}
	return srv, w, nil
}
