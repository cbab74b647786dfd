// ABOUTME: HTTP API for uploading documents and asking questions about them
// ABOUTME: JSON endpoints on net/http with CORS, request logging, and graceful shutdown
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/extract"
	"github.com/harper/ragdoc/internal/models"
)

// SessionHeader selects the session a request works on
const SessionHeader = "X-Session-ID"

// MaxAskBytes caps the /ask request body
const MaxAskBytes = 64 << 10

// Service is what the HTTP layer needs from the application
type Service interface {
	Ingest(ctx context.Context, sessionID, documentID, text string) (models.IngestResult, error)
	Ask(ctx context.Context, sessionID, question string, k int) (models.Answer, error)
	Reset(sessionID string) error
	NewSession() (string, error)
}

// Server routes HTTP requests to a Service
type Server struct {
	svc       Service
	extractor extract.Extractor
	mux       *http.ServeMux
}

// NewServer builds the routes
func NewServer(svc Service) *Server {
	s := &Server{
		svc:       svc,
		extractor: extract.PlainText{},
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /ingest", s.handleIngest)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /ask", s.handleAsk)
	s.mux.HandleFunc("POST /reset", s.handleReset)
	s.mux.HandleFunc("POST /sessions", s.handleNewSession)
	return s
}

// Handler returns the routes wrapped in CORS and logging middleware
func (s *Server) Handler() http.Handler {
	return logRequests(cors(s.mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

type ingestRequest struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

type askRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxDocumentBytes+4096)

	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DocumentID == "" {
		req.DocumentID = "document"
	}

	res, err := s.svc.Ingest(r.Context(), r.Header.Get(SessionHeader), req.DocumentID, req.Text)
	writeIngestResult(w, res, err)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxDocumentBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field \"file\" is required"})
		return
	}
	defer func() { _ = file.Close() }()

	text, err := s.extractor.Extract(header.Filename, file)
	if err != nil {
		writeIngestResult(w, models.IngestResult{DocumentID: header.Filename, Message: "Could not read the document."}, err)
		return
	}

	res, err := s.svc.Ingest(r.Context(), r.Header.Get(SessionHeader), header.Filename, text)
	writeIngestResult(w, res, err)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAskBytes)

	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ans, err := s.svc.Ask(r.Context(), r.Header.Get(SessionHeader), req.Question, req.K)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(r.Header.Get(SessionHeader)); err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "empty"})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.NewSession()
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// writeIngestResult always sends an IngestResult body so clients can show the message
func writeIngestResult(w http.ResponseWriter, res models.IngestResult, err error) {
	if err != nil {
		log.Warn("ingest failed", "document", res.DocumentID, "err", err)
		if res.Message == "" {
			res.Message = err.Error()
		}
		writeJSON(w, statusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody reads a JSON request body into v and writes the error response
// itself when that fails
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)})
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
	return false
}

// statusFor maps the error taxonomy onto HTTP. Degraded model calls are not
// transport errors, so they stay 200.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrDocumentUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrEmbeddingFailure), errors.Is(err, models.ErrIndexCorruption), errors.Is(err, models.ErrGenerationFailure):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("writing response failed", "err", err)
	}
}
