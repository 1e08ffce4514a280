package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/shebe-dev/shebe/internal/output"
	"github.com/shebe-dev/shebe/internal/preview"
)

func newPreviewChunkCmd() *cobra.Command {
	var (
		sessionID    string
		chunkIndex   int64
		contextLines int
		format       string
	)

	cmd := &cobra.Command{
		Use:   "preview-chunk <file_path>",
		Short: "Render a chunk's source lines, expanded by context",
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

			resp, err := preview.Preview(cmd.Context(), mgr, preview.Request{
				Session:      sessionID,
				FilePath:     args[0],
				ChunkIndex:   chunkIndex,
				ContextLines: contextLines,
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
			for _, l := range resp.Lines {
				marker := "  "
				if l.ChunkStart {
					marker = "> "
				} else if l.ChunkEnd {
					marker = "< "
				}
				out.Statusf("", "%s%4d | %s", marker, l.Number, l.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session the chunk belongs to (required)")
	cmd.Flags().Int64Var(&chunkIndex, "chunk-index", 0, "Chunk index within the file")
	cmd.Flags().IntVar(&contextLines, "context-lines", 0, "Lines of context around the chunk (0-100)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
