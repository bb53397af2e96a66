package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sadra3st/CBIR/pkg/retriever"
)

func newSearchCmd() *cobra.Command {
	var k int
	var method string

	cmd := &cobra.Command{
		Use:   "search <image-path>",
		Short: "Find the most visually similar indexed images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRetriever()
			if err != nil {
				return err
			}

			results, err := r.Search(retriever.SearchQuery{
				Path:   args[0],
				K:      k,
				Method: retriever.Method(method),
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}

			out := cmd.OutOrStdout()
			for i, res := range results {
				fmt.Fprintf(out, "%d. %s  score=%.4f  category=%s  id=%s\n",
					i+1, res.Path, res.Score, res.Category, res.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&k, "k", 10, "Number of neighbors to return")
	cmd.Flags().StringVar(&method, "method", string(retriever.MethodBruteForce),
		"Search method: brute_force, lsh, nsw, annoy or hnsw-experimental")

	return cmd
}
