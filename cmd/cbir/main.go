// Package main provides the entry point for the cbir CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Sadra3st/CBIR/cmd/cbir/cmd"
	"github.com/Sadra3st/CBIR/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if cmd.JSONErrorsEnabled() {
			if payload, jsonErr := errors.FormatJSON(err); jsonErr == nil {
				fmt.Fprintln(os.Stderr, string(payload))
				os.Exit(1)
			}
		}
		if cmd.DebugEnabled() {
			fmt.Fprintln(os.Stderr, errors.FormatForUser(err, true))
		} else {
			fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		}
		os.Exit(1)
	}
}
