package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skosovsky/promptreg/registry"
)

func newListCmd(a *app) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active prompts",
		Long: `Lists the active prompt for every id in the project and global directories.
With --tag only prompts carrying all given tags are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := a.registry()
			var (
				entries []registry.Entry
				err     error
			)
			if len(tags) > 0 {
				entries, err = reg.Filter(cmd.Context(), tags)
			} else {
				entries, err = reg.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tTAGS\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					e.Prompt.ID, e.Source, strings.Join(e.Prompt.Tags, ","), e.Prompt.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "only list prompts carrying this tag (repeatable)")
	return cmd
}
