// ABOUTME: Session owns the active index and chunk list of one document
// ABOUTME: Re-uploads build a new index off to the side and swap it in atomically
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/storage"
)

// SessionStatus is EMPTY until a document with at least one chunk is loaded
type SessionStatus string

const (
	SessionEmpty  SessionStatus = "empty"
	SessionLoaded SessionStatus = "loaded"
)

// SessionView is a consistent read-only picture of a session. The index it
// points at is never mutated after being swapped in.
type SessionView struct {
	ID         string
	DocumentID string
	Index      *storage.VectorIndex
	Chunks     []models.Chunk
}

// Loaded reports whether the view has anything to search
func (v SessionView) Loaded() bool {
	return v.Index != nil && v.Index.Len() > 0
}

// Session holds one document's index. Readers take a View and search without
// holding the session lock; Load and Reset are serialised by loadMu.
type Session struct {
	id       string
	dim      int
	embedder storage.Embedder
	store    storage.Store

	loadMu sync.Mutex

	mu         sync.RWMutex
	index      *storage.VectorIndex
	chunks     []models.Chunk
	documentID string
}

// NewSession creates an EMPTY session. store may be nil for memory-only use.
func NewSession(id string, dim int, embedder storage.Embedder, store storage.Store) *Session {
	return &Session{
		id:       id,
		dim:      dim,
		embedder: embedder,
		store:    store,
		index:    storage.NewVectorIndex(dim, "", embedder, store),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// ErrNotPersisted is returned by Session.Load when the document is live in
// memory but could not be saved. The previous persisted document is cleared
// so a restart comes back EMPTY rather than with the replaced document.
var ErrNotPersisted = errors.New("document indexed but not persisted")

// Load replaces the session contents with chunks of documentID. On embedding
// failure the session ends EMPTY and the error wraps ErrEmbeddingFailure.
func (s *Session) Load(ctx context.Context, documentID string, chunks []models.Chunk) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if len(chunks) == 0 {
		// a document too short to chunk still supersedes the previous one
		s.clearPersisted()
		s.swap(storage.NewVectorIndex(s.dim, documentID, s.embedder, s.store), nil, documentID)
		return nil
	}

	next := storage.NewVectorIndex(s.dim, documentID, s.embedder, s.store)
	err := next.Add(ctx, models.ChunkTexts(chunks))
	var saveErr error
	switch {
	case errors.Is(err, models.ErrEmbeddingFailure):
		s.becomeEmpty()
		return err
	case err != nil:
		// the store may still hold the previous document
		log.Warn("document loaded but not persisted", "session", s.id, "document", documentID, "err", err)
		s.clearPersisted()
		saveErr = fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	s.swap(next, append([]models.Chunk(nil), chunks...), documentID)
	log.Debug("document loaded", "session", s.id, "document", documentID, "chunks", len(chunks))
	return saveErr
}

// Restore loads the persisted index, if any. A corrupt store is cleared and
// the session left EMPTY; the ErrIndexCorruption is returned for logging.
func (s *Session) Restore() error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	idx := storage.NewVectorIndex(s.dim, "", s.embedder, s.store)
	if err := idx.Restore(); err != nil {
		log.Warn("discarding unreadable persisted index", "session", s.id, "err", err)
		s.clearPersisted()
		s.swap(idx, nil, "")
		return err
	}

	s.swap(idx, models.ChunksFromTexts(idx.Texts()), idx.DocumentID())
	if idx.Len() > 0 {
		log.Info("restored persisted index", "session", s.id, "document", idx.DocumentID(), "chunks", idx.Len())
	}
	return nil
}

// Reset moves the session to EMPTY and clears persisted state
func (s *Session) Reset() error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	fresh := storage.NewVectorIndex(s.dim, "", s.embedder, s.store)
	err := fresh.Reset()
	s.swap(fresh, nil, "")
	if err != nil {
		return fmt.Errorf("resetting session %s: %w", s.id, err)
	}
	return nil
}

// View returns the active index, chunks, and document id as one consistent triple
func (s *Session) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionView{
		ID:         s.id,
		DocumentID: s.documentID,
		Index:      s.index,
		Chunks:     s.chunks,
	}
}

// IsLoaded reports whether the active index has at least one entry
func (s *Session) IsLoaded() bool {
	return s.View().Loaded()
}

// State returns SessionLoaded or SessionEmpty
func (s *Session) State() SessionStatus {
	if s.IsLoaded() {
		return SessionLoaded
	}
	return SessionEmpty
}

// Close releases the session's store
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Session) becomeEmpty() {
	s.clearPersisted()
	s.swap(storage.NewVectorIndex(s.dim, "", s.embedder, s.store), nil, "")
}

func (s *Session) clearPersisted() {
	if s.store == nil {
		return
	}
	if err := s.store.Clear(); err != nil {
		log.Warn("clearing persisted index failed", "session", s.id, "err", err)
	}
}

func (s *Session) swap(index *storage.VectorIndex, chunks []models.Chunk, documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.chunks = chunks
	s.documentID = documentID
}
