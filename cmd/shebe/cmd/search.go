package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/output"
	"github.com/shebe-dev/shebe/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		sessionID string
		limit     int
		format    string
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search an indexed session",
		Long: `Run a BM25 full-text query against a session's index and
print the ranked hits.

Examples:
  shebe search --session myproject "authenticate user"
  shebe search --session myproject "content:handler" --limit 5 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, sessionID, query, limit, format)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to search (required)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runSearch(cmd *cobra.Command, sessionID, query string, limit int, format string) error {
	lastFormat = format
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mgr, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	searchCfg := search.Config{
		DefaultK:       cfg.Search.DefaultK,
		MaxK:           cfg.Search.MaxK,
		MaxQueryLength: cfg.Search.MaxQueryLength,
	}

	var k *int
	if limit > 0 {
		k = &limit
	}

	resp, err := search.Search(cmd.Context(), mgr, searchCfg, sessionID, query, k)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := output.New(cmd.OutOrStdout())
	if resp.Count == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("", "Found %d results for %q (%dms):", resp.Count, query, resp.DurationMs)
	out.Newline()
	for i, r := range resp.Results {
		out.Statusf("", "%d. %s:%d (score: %.3f)", i+1, r.FilePath, r.ChunkIndex, r.Score)
		out.Status("", "   "+firstLine(r.Text))
	}
	return nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
