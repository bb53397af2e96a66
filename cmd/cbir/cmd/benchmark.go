package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBenchmarkCmd() *cobra.Command {
	var numQueries int
	var k int

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare LSH/NSW/Annoy recall and latency against brute force",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			r, err := buildRetrieverFromConfig(cfg)
			if err != nil {
				return err
			}

			nq, kk := numQueries, k
			if nq == 0 {
				nq = cfg.Benchmark.NumQueries
			}
			if kk == 0 {
				kk = cfg.Benchmark.K
			}

			report, err := r.Benchmark(nq, kk)
			if err != nil {
				return fmt.Errorf("benchmark: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVar(&numQueries, "queries", 0, "Number of sampled queries (default: config benchmark.num_queries)")
	cmd.Flags().IntVar(&k, "k", 0, "Neighbors per query (default: config benchmark.k)")

	return cmd
}
