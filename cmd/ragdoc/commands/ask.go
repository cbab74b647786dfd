// ABOUTME: Ask command answers a question from the persisted document
// ABOUTME: Prints the answer and, unless quiet, the passages it came from
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/models"
)

var (
	askK       int
	askSession string
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the ingested document",
		Long: `Ask a question about the document last ingested into the session.

Retrieves the --k passages closest to the question and answers from
them only. Without a language model the passages are printed instead.

Examples:
  ragdoc ask "Who wrote the report?"
  ragdoc ask --k 3 "What are the deadlines?"
  ragdoc ask --format json "Summarize the conclusion"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().IntVar(&askK, "k", 0, "Passages to retrieve (default: configured top-k)")
	cmd.Flags().StringVar(&askSession, "session", "", "Session id (default: the shared session)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("k") {
		if err := validatePositiveInt(askK, "k"); err != nil {
			return err
		}
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing app", "err", err)
		}
	}()

	ans, err := a.Ask(cmd.Context(), askSession, args[0], askK)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), ans)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ans.Answer)

	if quiet || len(ans.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tSOURCE\n")
	fmt.Fprintf(w, "----\t------\n")
	for i, src := range ans.Sources {
		fmt.Fprintf(w, "%d\t%s\n", i+1, truncate(src, 100))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if ans.Status != models.AnswerOK {
		fmt.Fprintf(out, "\nstatus: %s\n", ans.Status)
	}
	return nil
}
