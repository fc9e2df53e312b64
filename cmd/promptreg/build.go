package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skosovsky/promptreg/filestore"
	"github.com/skosovsky/promptreg/seed"
)

func newBuildCmd(a *app) *cobra.Command {
	var src, out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile prompt sources into complete prompt JSON files",
		Long: `Reads every .json, .yaml and .yml prompt source under --src. A source may
carry its content inline or name a markdown file with contentFile. Each
prompt is validated and written as a complete JSON document to --out,
replacing existing files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = a.cfg.GlobalDir
			}
			if out == "" {
				return errors.New("no output directory: set --out or global_dir")
			}
			info, err := os.Stat(src)
			if err != nil {
				return fmt.Errorf("source directory: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("source %q is not a directory", src)
			}
			source, err := seed.New(os.DirFS(src), ".")
			if err != nil {
				return err
			}
			store := filestore.New(out, filestore.WithLogger(a.logger.Named("build")))
			for _, id := range source.IDs() {
				p, _ := source.Get(id)
				if err := store.Put(cmd.Context(), p); err != nil {
					return err
				}
				a.logger.Debug("prompt built", zap.String("id", id))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "built %d prompt(s) into %s\n", len(source.IDs()), out)
			return err
		},
	}
	cmd.Flags().StringVar(&src, "src", "default_prompts_data", "directory of prompt sources")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default global_dir)")
	return cmd
}
