// Package cmd provides the CLI commands for the CBIR image retrieval tool.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sadra3st/CBIR/internal/config"
	"github.com/Sadra3st/CBIR/internal/logging"
	"github.com/Sadra3st/CBIR/pkg/retriever"
	"github.com/Sadra3st/CBIR/pkg/version"
)

var (
	debugMode      bool
	jsonErrors     bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the cbir CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cbir",
		Short:   "Content-based image retrieval vector database",
		Version: version.Version,
		Long: `cbir indexes images by their visual features and finds near
duplicates and similar images using brute-force, LSH, NSW or Annoy search.

Run 'cbir status' after 'cbir add' to watch the background index build
finish before issuing approximate queries.`,
	}

	cmd.SetVersionTemplate("cbir version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.cbir/logs/")
	cmd.PersistentFlags().BoolVar(&jsonErrors, "json-errors", false, "Report command failures as JSON on stderr")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newResetCmd())
	cmd.AddCommand(newBenchmarkCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// JSONErrorsEnabled reports whether --json-errors was set on the command
// line, so main can choose how to render a failing command's error.
func JSONErrorsEnabled() bool {
	return jsonErrors
}

// DebugEnabled reports whether --debug was set, so main can decide how much
// detail to include in a failing command's error output.
func DebugEnabled() bool {
	return debugMode
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig resolves the working-directory project config the same way
// every subcommand needs it: ./.cbir.yaml overlaid on the user/global
// config and environment overrides, via config.Load.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}
	return config.Load(dir)
}

// buildRetriever loads the project config and constructs a retriever bound
// to it, the shared entry point every data-mutating subcommand uses.
func buildRetriever() (*retriever.Retriever, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildRetrieverFromConfig(cfg)
}

// buildRetrieverFromConfig constructs a retriever from an already-loaded
// config, for subcommands (like benchmark) that also need the raw config
// for their own defaults.
func buildRetrieverFromConfig(cfg *config.Config) (*retriever.Retriever, error) {
	return retriever.New(retriever.WithConfig(cfg))
}
