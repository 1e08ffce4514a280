package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/output"
	"github.com/shebe-dev/shebe/internal/reference"
	"github.com/shebe-dev/shebe/internal/search"
)

func newFindReferencesCmd() *cobra.Command {
	var (
		sessionID    string
		symbolType   string
		definedIn    string
		includeDef   bool
		contextLines int
		maxResults   int
		format       string
	)

	cmd := &cobra.Command{
		Use:   "find-references <symbol>",
		Short: "Find pattern-classified references to a symbol",
		Long: `Rank candidate occurrences of a symbol across an indexed
session by a fixed pattern taxonomy (function calls, type annotations,
assignments, imports, ...) with a handful of contextual confidence
adjustments. This is pattern matching, not an AST tool.

Examples:
  shebe find-references --session myproject authenticate_user
  shebe find-references --session myproject --type function handle_request`,
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

			searchCfg := search.Config{
				DefaultK:       cfg.Search.DefaultK,
				MaxK:           cfg.Search.MaxK,
				MaxQueryLength: cfg.Search.MaxQueryLength,
			}

			resp, err := reference.Find(cmd.Context(), mgr, searchCfg, reference.Request{
				Symbol:            args[0],
				Session:           sessionID,
				SymbolType:        reference.SymbolType(symbolType),
				DefinedIn:         definedIn,
				IncludeDefinition: includeDef,
				ContextLines:      contextLines,
				MaxResults:        maxResults,
			})
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "%d references (%d high, %d medium, %d low)",
				len(resp.References), resp.High, resp.Medium, resp.Low)
			out.Newline()
			for _, r := range resp.References {
				out.Statusf("", "%s:%d  [%s, %.2f]", r.FilePath, r.Line, r.PatternName, r.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to search (required)")
	cmd.Flags().StringVar(&symbolType, "type", string(reference.SymbolAny), "Symbol type: function, type, variable, constant, any")
	cmd.Flags().StringVar(&definedIn, "defined-in", "", "Suffix of the file the symbol is defined in, excluded unless --include-definition")
	cmd.Flags().BoolVar(&includeDef, "include-definition", false, "Include the definition site named by --defined-in")
	cmd.Flags().IntVar(&contextLines, "context-lines", 0, "Context lines around each reference (0-10)")
	cmd.Flags().IntVar(&maxResults, "max-results", 20, "Maximum number of ranked references to return")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
