// ABOUTME: In-memory brute-force vector index with snapshot persistence
// ABOUTME: Stores unit vectors with their chunk text and searches by inner product
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/ragdoc/internal/models"
)

// Embedder maps texts to fixed-length vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex holds the vectors of one document and the text each vector was
// computed from. vectors[p] always belongs to texts[p].
type VectorIndex struct {
	mu         sync.RWMutex
	dim        int
	documentID string
	vectors    [][]float32
	texts      []string

	embedder Embedder
	store    Store // nil for an in-memory only index
}

// NewVectorIndex creates an empty index of the given dimensionality
func NewVectorIndex(dim int, documentID string, embedder Embedder, store Store) *VectorIndex {
	return &VectorIndex{
		dim:        dim,
		documentID: documentID,
		embedder:   embedder,
		store:      store,
	}
}

// Dimension returns D, fixed for the lifetime of the index
func (vi *VectorIndex) Dimension() int {
	return vi.dim
}

// DocumentID returns the identifier of the document the index was built from
func (vi *VectorIndex) DocumentID() string {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return vi.documentID
}

// Len returns the number of entries
func (vi *VectorIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.vectors)
}

// Texts returns a copy of the stored chunk texts in insertion order
func (vi *VectorIndex) Texts() []string {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return append([]string(nil), vi.texts...)
}

// Add embeds texts in order and appends them. If embedding fails nothing is
// committed, neither in memory nor on disk. A persistence failure after a
// successful embedding leaves the in-memory entries in place and is reported
// as ErrIndexCorruption.
func (vi *VectorIndex) Add(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := vi.embed(ctx, texts)
	if err != nil {
		return err
	}

	vi.mu.Lock()
	defer vi.mu.Unlock()

	vi.vectors = append(vi.vectors, vectors...)
	vi.texts = append(vi.texts, texts...)

	return vi.saveLocked()
}

// Search embeds the query and returns the texts of the k most similar entries
func (vi *VectorIndex) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k < 1 || vi.Len() == 0 {
		return []string{}, nil
	}

	vectors, err := vi.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	return models.HitTexts(vi.SearchVector(vectors[0], k)), nil
}

// SearchVector scores every entry against vec and returns the top k in
// descending order. Equal scores keep insertion order.
func (vi *VectorIndex) SearchVector(vec []float32, k int) []models.SearchHit {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	if k < 1 || len(vi.vectors) == 0 {
		return []models.SearchHit{}
	}

	query := Normalize(vec)
	hits := make([]models.SearchHit, len(vi.vectors))
	for i, v := range vi.vectors {
		hits[i] = models.SearchHit{
			Position: i,
			Text:     vi.texts[i],
			Score:    Dot(query, v),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Persist writes the current state to the store
func (vi *VectorIndex) Persist() error {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	return vi.saveLocked()
}

// Restore replaces the in-memory state with the persisted one. A missing
// store leaves the index empty and is not an error. A torn, truncated, or
// mismatched store also leaves the index empty and returns ErrIndexCorruption.
func (vi *VectorIndex) Restore() error {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	vi.clearLocked()
	if vi.store == nil {
		return nil
	}

	snap, err := vi.store.Load()
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: loading snapshot: %w", models.ErrIndexCorruption, err)
	}
	if err := snap.Validate(vi.dim); err != nil {
		return fmt.Errorf("%w: %w", models.ErrIndexCorruption, err)
	}

	vi.documentID = snap.DocumentID
	vi.vectors = snap.Vectors
	vi.texts = snap.Texts
	return nil
}

// Reset drops every entry and the persisted state. The dimensionality is kept.
func (vi *VectorIndex) Reset() error {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	vi.clearLocked()
	vi.documentID = ""
	if vi.store == nil {
		return nil
	}
	if err := vi.store.Clear(); err != nil {
		return fmt.Errorf("clearing persisted index: %w", err)
	}
	return nil
}

func (vi *VectorIndex) clearLocked() {
	vi.vectors = nil
	vi.texts = nil
}

// embed calls the embedder and checks count and dimensionality before
// returning unit vectors
func (vi *VectorIndex) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if vi.embedder == nil {
		return nil, fmt.Errorf("%w: no embedder configured", models.ErrEmbeddingFailure)
	}

	raw, err := vi.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingFailure, err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", models.ErrEmbeddingFailure, len(raw), len(texts))
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		if len(v) != vi.dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", models.ErrEmbeddingFailure, i, len(v), vi.dim)
		}
		vectors[i] = Normalize(v)
	}
	return vectors, nil
}

func (vi *VectorIndex) saveLocked() error {
	if vi.store == nil {
		return nil
	}

	snap := &Snapshot{
		Generation: uuid.New(),
		DocumentID: vi.documentID,
		Dimension:  vi.dim,
		Vectors:    vi.vectors,
		Texts:      vi.texts,
	}
	if err := vi.store.Save(snap); err != nil {
		log.Warn("persisting vector index failed", "document", vi.documentID, "entries", len(vi.vectors), "err", err)
		return fmt.Errorf("%w: persisting index: %w", models.ErrIndexCorruption, err)
	}
	return nil
}
