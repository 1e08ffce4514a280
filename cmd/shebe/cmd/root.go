// Package cmd provides the CLI commands for shebe, a per-repository
// session-oriented full-text code search core.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	coreerrors "github.com/shebe-dev/shebe/internal/errors"

	"github.com/shebe-dev/shebe/internal/config"
	"github.com/shebe-dev/shebe/internal/logging"
	"github.com/shebe-dev/shebe/internal/session"
	"github.com/shebe-dev/shebe/pkg/version"
)

var (
	storageDir     string
	debugMode      bool
	loggingCleanup func()

	// lastFormat records the --format value of the search subcommand, so
	// Execute can report a search failure in the same format the caller
	// asked for (a JSON envelope for --format json, plain text otherwise).
	// Other subcommands do not set it; their failures are reported as
	// plain text.
	lastFormat string
)

// NewRootCmd creates the root command for the shebe CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shebe",
		Short: "Per-repository BM25 full-text code search",
		Long: `shebe indexes a repository into a named session and answers
full-text queries against it with BM25 ranking.

Each session is self-contained: its own index, its own indexing
configuration, its own metadata. There is no cross-session search.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("shebe version {{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVar(&storageDir, "storage-dir", "", "Override the session storage root (defaults to ~/.shebe/sessions)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.shebe/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newUpgradeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newSessionInfoCmd())
	cmd.AddCommand(newDeleteSessionCmd())
	cmd.AddCommand(newListDirCmd())
	cmd.AddCommand(newFindFileCmd())
	cmd.AddCommand(newFindReferencesCmd())
	cmd.AddCommand(newPreviewChunkCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
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

// Execute runs the root command, printing any returned error the way the
// rest of the CLI reports problems (code + suggestion, not a bare Go error
// string), and logging it to the debug log when --debug is set.
func Execute() error {
	err := NewRootCmd().Execute()
	if err == nil {
		return nil
	}

	if debugMode {
		attrs := coreerrors.FormatForLog(err)
		args := make([]any, 0, 2*len(attrs))
		for k, v := range attrs {
			args = append(args, slog.Any(k, v))
		}
		slog.Error("command failed", args...)
	}

	if lastFormat == "json" {
		data, jsonErr := coreerrors.FormatJSON(err)
		if jsonErr == nil {
			fmt.Fprintln(os.Stderr, string(data))
			return err
		}
	}

	fmt.Fprint(os.Stderr, coreerrors.FormatForCLI(err))
	return err
}

// loadConfig resolves configuration the same way every subcommand needs
// it: defaults, overlaid by user and project config files rooted at the
// current working directory.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if storageDir != "" {
		cfg.Storage.IndexDir = storageDir
	}
	return cfg, nil
}

// newSessionManager builds the session.Manager every subcommand shares,
// rooted at the resolved storage directory.
func newSessionManager(cfg *config.Config) (*session.Manager, error) {
	return session.NewManager(cfg.Storage.IndexDir)
}
