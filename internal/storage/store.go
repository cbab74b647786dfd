// ABOUTME: Persistence contract for the vector index
// ABOUTME: A Snapshot pairs the vector set with its parallel chunk-text list
package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSnapshotNotFound is returned by Store.Load when nothing was persisted yet
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the full persisted state of one index. Vectors and Texts are
// parallel and in insertion order.
type Snapshot struct {
	Generation uuid.UUID
	DocumentID string
	Dimension  int
	Vectors    [][]float32
	Texts      []string
}

// Validate checks the snapshot against the dimensionality the caller expects
func (s *Snapshot) Validate(dimension int) error {
	if s.Dimension != dimension {
		return fmt.Errorf("snapshot dimension %d does not match index dimension %d", s.Dimension, dimension)
	}
	if len(s.Vectors) != len(s.Texts) {
		return fmt.Errorf("snapshot has %d vectors but %d chunk texts", len(s.Vectors), len(s.Texts))
	}
	for i, v := range s.Vectors {
		if len(v) != dimension {
			return fmt.Errorf("snapshot vector %d has %d components, want %d", i, len(v), dimension)
		}
	}
	return nil
}

// Store persists and restores index snapshots. Save must write vectors and
// texts together; Load must never return one without the other.
type Store interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
	Close() error
}
