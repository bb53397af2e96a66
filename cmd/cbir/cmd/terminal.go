package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
)

// stdinIsTerminal reports whether standard input is an interactive
// terminal, grounded on amanmcp's internal/ui/ui.go isatty-based TTY
// detection. Subcommands that prompt for confirmation use this to avoid
// blocking on a ReadString that will never see a newline when cbir is run
// from a script or CI job.
func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
