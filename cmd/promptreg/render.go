package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Print the active version of a prompt with variables substituted",
		Long: `Resolves the active version of a prompt and substitutes --var values.
A value starting with @ is read from the named file.

Example:
  promptreg render code-review --var language=Go --var diff=@change.diff`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseVars(vars)
			if err != nil {
				return err
			}
			text, _, err := a.registry().Render(cmd.Context(), args[0], values)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable as name=value or name=@file (repeatable)")
	return cmd
}

// parseVars splits name=value pairs on the first '='.
func parseVars(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q: want name=value", pair)
		}
		if path, isFile := strings.CutPrefix(value, "@"); isFile {
			data, err := os.ReadFile(path) // #nosec G304 -- path supplied by the user on the command line
			if err != nil {
				return nil, fmt.Errorf("read --var %s: %w", name, err)
			}
			value = string(data)
		}
		values[name] = value
	}
	return values, nil
}
