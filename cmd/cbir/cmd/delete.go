package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an indexed image by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRetriever()
			if err != nil {
				return err
			}

			existed, err := r.DeleteImage(args[0])
			if err != nil {
				return fmt.Errorf("delete image: %w", err)
			}
			if !existed {
				fmt.Fprintf(cmd.OutOrStdout(), "no item with id %s\n", args[0])
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
