package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/indexing"
	"github.com/shebe-dev/shebe/internal/output"
)

func newReindexCmd() *cobra.Command {
	var (
		force     bool
		chunkSize int
		overlap   int
	)

	cmd := &cobra.Command{
		Use:   "reindex <session>",
		Short: "Rebuild an existing session from its stored configuration",
		Long: `Rebuild a session's index from its stored repository path and
pattern lists. Passing neither --chunk-size/--overlap nor --force fails
rather than performing a no-op rebuild.

Examples:
  shebe reindex myproject --force
  shebe reindex myproject --chunk-size 1024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}

			params := indexing.ReindexParams{SessionID: args[0], Force: force}
			if cmd.Flags().Changed("chunk-size") {
				params.ChunkSize = &chunkSize
			}
			if cmd.Flags().Changed("overlap") {
				params.Overlap = &overlap
			}

			result, err := indexing.Reindex(cmd.Context(), mgr, params)
			if err != nil {
				return err
			}

			out.Successf("Reindexed %q: %d files, %d chunks (%dms)",
				args[0], result.FilesIndexed, result.ChunksCreated, result.DurationMs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if no parameters changed")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Override the stored chunk size")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Override the stored chunk overlap")

	return cmd
}

func newUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade <session>",
		Short: "Rebuild a schema-stale session at the current schema version",
		Long: `A session whose on-disk schema_version predates this binary's
required version cannot be opened for search. upgrade deletes and rebuilds
it from its stored configuration, the same as 'reindex --force'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}

			result, err := indexing.Upgrade(cmd.Context(), mgr, args[0])
			if err != nil {
				return err
			}

			out.Successf("Upgraded %q: %d files, %d chunks (%dms)",
				args[0], result.FilesIndexed, result.ChunksCreated, result.DurationMs)
			return nil
		},
	}
	return cmd
}
