package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the store and every index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("reset requires --yes when stdin is not a terminal")
				}

				fmt.Fprint(cmd.OutOrStdout(), "this deletes every indexed image permanently, continue? [y/N] ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			r, err := buildRetriever()
			if err != nil {
				return err
			}

			if err := r.Reset(); err != nil {
				return fmt.Errorf("reset: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "store and indexes reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
