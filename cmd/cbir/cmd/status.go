package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show item counts, category breakdown and index build status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRetriever()
			if err != nil {
				return err
			}

			count, dimensions, categories, status := r.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:     %s\n", status)
			fmt.Fprintf(out, "items:      %d\n", count)
			fmt.Fprintf(out, "dimensions: %d\n", dimensions)
			fmt.Fprintf(out, "ready:      %t\n", r.Ready())

			if len(categories) > 0 {
				names := make([]string, 0, len(categories))
				for name := range categories {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Fprintln(out, "categories:")
				for _, name := range names {
					fmt.Fprintf(out, "  %-20s %d\n", name, categories[name])
				}
			}

			return nil
		},
	}
}
