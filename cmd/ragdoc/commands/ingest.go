// ABOUTME: Ingest command loads a document into a persisted session
// ABOUTME: Replaces whatever document the session held before
package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var ingestSession string

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a document",
		Long: `Ingest a .txt or .md document into a session.

The document replaces the session's previous one and its index is
persisted, so later "ragdoc ask" runs can answer from it.

Examples:
  ragdoc ingest notes.md
  ragdoc ingest --session research paper.txt
  ragdoc ingest --format json notes.md`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestSession, "session", "", "Session id (default: the shared session)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing app", "err", err)
		}
	}()

	res, err := a.IngestFile(cmd.Context(), ingestSession, args[0])
	if err != nil {
		if res.Message != "" {
			return fmt.Errorf("%s: %w", res.Message, err)
		}
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	if !res.Indexed {
		fmt.Fprintln(out, res.Message)
		return nil
	}
	fmt.Fprintf(out, "Indexed %d chunk(s) from %s\n", res.ChunkCount, res.DocumentID)
	if res.Message != "" && !quiet {
		fmt.Fprintln(out, res.Message)
	}
	return nil
}
