// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Optionally watches a document and re-ingests it whenever it changes
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/app"
	"github.com/harper/ragdoc/internal/httpapi"
	"github.com/harper/ragdoc/internal/watch"
)

var (
	serveAddr  string
	serveWatch string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API for uploading documents and asking questions.

Endpoints: GET /health, POST /ingest, POST /upload, POST /ask,
POST /reset, POST /sessions. Send X-Session-ID to use a named session.

With --watch, the file is ingested into the default session at startup
and again every time it changes on disk.`,
		Example: `  ragdoc serve
  ragdoc serve --addr 127.0.0.1:9000
  ragdoc serve --watch notes.md`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $RAG_LISTEN_ADDR or :8000)")
	cmd.Flags().StringVar(&serveWatch, "watch", "", "Document to ingest and re-ingest on change")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing app", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch != "" {
		reingest(ctx, a, serveWatch)
		done, err := watch.File(ctx, serveWatch, watch.DefaultDebounce, func(ctx context.Context, path string) {
			reingest(ctx, a, path)
		})
		if err != nil {
			return err
		}
		defer func() {
			stop()
			<-done
		}()
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.ListenAddr
	}
	return httpapi.NewServer(a).Run(ctx, addr)
}

func reingest(ctx context.Context, a *app.App, path string) {
	res, err := a.IngestFile(ctx, "", path)
	if err != nil {
		log.Error("ingest failed", "path", path, "err", err)
		return
	}
	log.Info("document ingested", "document", res.DocumentID, "chunks", res.ChunkCount, "indexed", res.Indexed)
}
