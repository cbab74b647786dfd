// ABOUTME: Chat command ingests a document and opens an interactive TUI
// ABOUTME: Uses a throwaway session that is reset when the chat closes
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/tui"
)

var chatK int

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <file>",
		Short: "Chat with a document in the terminal",
		Long: `Ingest a document into a fresh session and ask questions about it
interactively. The session is discarded on exit.

Keys: Enter asks, Ctrl+S toggles sources, PgUp/PgDn scroll, Esc quits.`,
		Example: `  ragdoc chat notes.md`,
		Args:    cobra.ExactArgs(1),
		RunE:    runChat,
	}

	cmd.Flags().IntVar(&chatK, "k", 0, "Passages to retrieve (default: configured top-k)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("chat needs an interactive terminal; use \"ragdoc ingest\" and \"ragdoc ask\" in scripts")
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

	sessionID, err := a.NewSession()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Reset(sessionID); err != nil {
			log.Warn("discarding chat session", "session", sessionID, "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := a.IngestFile(ctx, sessionID, args[0])
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}
	if !res.Indexed {
		return fmt.Errorf("%s", res.Message)
	}

	return tui.Run(ctx, res.DocumentID, func(ctx context.Context, question string) (models.Answer, error) {
		return a.Ask(ctx, sessionID, question, chatK)
	})
}
