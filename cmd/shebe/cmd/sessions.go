package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/output"
)

func newSessionsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List all known sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}

			sessions, err := mgr.List()
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sessions)
			}

			out := output.New(cmd.OutOrStdout())
			if len(sessions) == 0 {
				out.Status("", "No sessions found")
				return nil
			}
			for _, s := range sessions {
				out.Statusf("", "%s  %s  %d files, %d chunks", s.ID, s.RepositoryPath, s.FilesIndexed, s.ChunksCreated)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func newSessionInfoCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "session-info <session>",
		Short: "Show metadata for one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}

			meta, err := mgr.GetMetadata(args[0])
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "id:               %s", meta.ID)
			out.Statusf("", "repository_path:  %s", meta.RepositoryPath)
			out.Statusf("", "created_at:       %s", meta.CreatedAt)
			out.Statusf("", "last_indexed_at:  %s", meta.LastIndexedAt)
			out.Statusf("", "files_indexed:    %d", meta.FilesIndexed)
			out.Statusf("", "chunks_created:   %d", meta.ChunksCreated)
			out.Statusf("", "index_size_bytes: %d", meta.IndexSizeBytes)
			out.Statusf("", "schema_version:   %d", meta.SchemaVersion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func newDeleteSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-session <session>",
		Short: "Delete a session and its index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}

			if err := mgr.Delete(args[0]); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Deleted session %q", args[0])
			return nil
		},
	}
	return cmd
}
