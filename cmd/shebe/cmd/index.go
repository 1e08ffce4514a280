package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/indexing"
	"github.com/shebe-dev/shebe/internal/output"
)

func newIndexCmd() *cobra.Command {
	var (
		repoPath string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "index <session>",
		Short: "Build a new session index from a repository",
		Long: `Walk a repository, chunk its admitted files and commit the
resulting documents to a new session index.

Examples:
  shebe index myproject --repo .
  shebe index myproject --repo ~/code/myproject --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], repoPath, force)
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "Path to the repository to index")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing session with the same id")

	return cmd
}

func runIndex(cmd *cobra.Command, sessionID, repoPath string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return err
	}

	result, err := indexing.Index(cmd.Context(), mgr, indexing.Params{
		SessionID:       sessionID,
		RepositoryPath:  abs,
		IncludePatterns: cfg.Indexing.IncludePatterns,
		ExcludePatterns: cfg.Indexing.ExcludePatterns,
		ChunkSize:       cfg.Indexing.ChunkSize,
		Overlap:         cfg.Indexing.Overlap,
		MaxFileSizeMB:   cfg.Indexing.MaxFileSizeMB,
		Force:           force,
	})
	if err != nil {
		return err
	}

	out.Successf("Indexed %q: %d files, %d chunks, %d skipped (%dms)",
		sessionID, result.FilesIndexed, result.ChunksCreated, result.FilesSkipped, result.DurationMs)
	return nil
}
