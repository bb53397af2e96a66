package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <image-path>",
		Short: "Embed and index a single image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := buildRetriever()
			if err != nil {
				return err
			}

			id, err := r.AddImage(args[0], category)
			if err != nil {
				return fmt.Errorf("add image: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s (id: %s)\n", args[0], id)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category label for the image (default: unknown)")

	return cmd
}
