package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/browse"
	"github.com/shebe-dev/shebe/internal/output"
)

func newListDirCmd() *cobra.Command {
	var (
		sessionID string
		sortBy    string
		limit     int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "list-dir",
		Short: "Enumerate the distinct files an indexed session covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}
			b, err := browse.New(mgr)
			if err != nil {
				return err
			}

			entries, err := b.ListDir(cmd.Context(), browse.ListDirRequest{
				Session: sessionID,
				Sort:    browse.SortBy(sortBy),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			return printEntries(cmd, entries, format)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to enumerate (required)")
	cmd.Flags().StringVar(&sortBy, "sort", "alpha", "Sort order: alpha, size, indexed")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (0 is unlimited)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newFindFileCmd() *cobra.Command {
	var (
		sessionID string
		useRegex  bool
		limit     int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "find-file <pattern>",
		Short: "Find indexed files matching a glob or regular expression",
		Long: `Filter a session's indexed files by a doublestar glob
(supports **) or, with --regex, a regular expression.

Examples:
  shebe find-file --session myproject "**/*.go"
  shebe find-file --session myproject --regex "handler_test\.go$"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mgr, err := newSessionManager(cfg)
			if err != nil {
				return err
			}
			b, err := browse.New(mgr)
			if err != nil {
				return err
			}

			entries, err := b.FindFile(cmd.Context(), browse.FindFileRequest{
				Session: sessionID,
				Pattern: args[0],
				Regex:   useRegex,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			return printEntries(cmd, entries, format)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to search (required)")
	cmd.Flags().BoolVar(&useRegex, "regex", false, "Treat the pattern as a regular expression instead of a glob")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (0 is unlimited)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func printEntries(cmd *cobra.Command, entries []browse.Entry, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	out := output.New(cmd.OutOrStdout())
	if len(entries) == 0 {
		out.Status("", "No matching files")
		return nil
	}
	for _, e := range entries {
		out.Statusf("", "%s  (%d bytes, %d chunks)", e.FilePath, e.SizeBytes, e.ChunkCount)
	}
	return nil
}
