// ABOUTME: Registry mapping session ids to independently owned sessions
// ABOUTME: Sessions are created lazily and restored from their own store namespace
package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/storage"
)

// DefaultSessionID is used when a caller names no session
const DefaultSessionID = "default"

// ErrInvalidSessionID is returned for ids that cannot name a store namespace
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrTooManySessions is returned when a new session would exceed the limit
var ErrTooManySessions = errors.New("session limit reached")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// StoreFactory opens the persisted store for a session. Returning a nil store
// keeps the session in memory only.
type StoreFactory func(sessionID string) (storage.Store, error)

// Sessions is safe for concurrent use
type Sessions struct {
	dim      int
	embedder storage.Embedder
	factory  StoreFactory
	limit    int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates an empty registry. factory may be nil.
func NewSessions(dim int, embedder storage.Embedder, factory StoreFactory) *Sessions {
	return &Sessions{
		dim:      dim,
		embedder: embedder,
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// SetLimit caps how many sessions the registry will hold. Sessions are never
// evicted, so the cap bounds memory and store namespaces. n < 1 means no limit.
func (r *Sessions) SetLimit(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = n
}

// Get returns the session for id, creating and restoring it on first use.
// An empty id selects DefaultSessionID.
func (r *Sessions) Get(id string) (*Session, error) {
	if id == "" {
		id = DefaultSessionID
	}
	if !sessionIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return nil, fmt.Errorf("%w: %d sessions open", ErrTooManySessions, len(r.sessions))
	}

	var store storage.Store
	if r.factory != nil {
		var err error
		store, err = r.factory(id)
		if err != nil {
			return nil, fmt.Errorf("opening store for session %s: %w", id, err)
		}
	}

	s := NewSession(id, r.dim, r.embedder, store)
	if err := s.Restore(); err != nil && !errors.Is(err, models.ErrIndexCorruption) {
		return nil, err
	}
	r.sessions[id] = s
	return s, nil
}

// Create mints a fresh session id and returns its session
func (r *Sessions) Create() (*Session, error) {
	return r.Get(uuid.NewString())
}

// IDs lists the sessions created so far
func (r *Sessions) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases every session's store
func (r *Sessions) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, s := range r.sessions {
		if err := s.Close(); err != nil {
			log.Warn("closing session store failed", "session", id, "err", err)
			errs = append(errs, err)
		}
	}
	r.sessions = make(map[string]*Session)
	return errors.Join(errs...)
}
