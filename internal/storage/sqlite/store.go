// ABOUTME: storage.Store backed by SQLite tables keyed by namespace
// ABOUTME: Save replaces a namespace inside one transaction so loads never see a partial write
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/ragdoc/internal/storage"
)

// Store persists one index snapshot under a namespace
type Store struct {
	db        *DB
	namespace string
	ownsDB    bool
}

var _ storage.Store = (*Store)(nil)

// NewStore shares an open database; Close leaves the database open
func NewStore(db *DB, namespace string) *Store {
	return &Store{db: db, namespace: namespace}
}

// OpenStore opens the database at path and owns it
func OpenStore(path, namespace string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, namespace: namespace, ownsDB: true}, nil
}

// Namespace returns the key this store writes under
func (s *Store) Namespace() string {
	return s.namespace
}

// Save replaces the namespace with snap in one transaction
func (s *Store) Save(snap *storage.Snapshot) error {
	if len(snap.Vectors) != len(snap.Texts) {
		return fmt.Errorf("snapshot has %d vectors but %d chunk texts", len(snap.Vectors), len(snap.Texts))
	}
	return s.db.withTx(func(tx *sql.Tx) error {
		if err := deleteNamespace(tx, s.namespace); err != nil {
			return err
		}
		return insertSnapshot(tx, s.namespace, snap)
	})
}

func insertSnapshot(tx *sql.Tx, namespace string, snap *storage.Snapshot) error {
	_, err := tx.Exec(`
		INSERT INTO index_meta (namespace, generation, document_id, dimension, entry_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, namespace, snap.Generation.String(), snap.DocumentID, snap.Dimension, len(snap.Vectors), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write index metadata: %w", err)
	}

	vecStmt, err := tx.Prepare(`INSERT INTO index_vectors (namespace, position, vector) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vector insert: %w", err)
	}
	defer func() { _ = vecStmt.Close() }()

	chunkStmt, err := tx.Prepare(`INSERT INTO index_chunks (namespace, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() { _ = chunkStmt.Close() }()

	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return fmt.Errorf("vector %d has %d components, want %d", i, len(v), snap.Dimension)
		}
		if _, err := vecStmt.Exec(namespace, i, storage.EncodeVector(v)); err != nil {
			return fmt.Errorf("failed to write vector %d: %w", i, err)
		}
		if _, err := chunkStmt.Exec(namespace, i, snap.Texts[i]); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
	}
	return nil
}

// Load reads the namespace back, checking entry counts against the metadata row
func (s *Store) Load() (*storage.Snapshot, error) {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		generation string
		snap       storage.Snapshot
		count      int
	)
	err = tx.QueryRow(`
		SELECT generation, document_id, dimension, entry_count
		FROM index_meta
		WHERE namespace = ?
	`, s.namespace).Scan(&generation, &snap.DocumentID, &snap.Dimension, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}

	snap.Generation, err = uuid.Parse(generation)
	if err != nil {
		return nil, fmt.Errorf("invalid generation %q: %w", generation, err)
	}

	snap.Vectors, err = loadVectors(tx, s.namespace)
	if err != nil {
		return nil, err
	}
	snap.Texts, err = loadChunks(tx, s.namespace)
	if err != nil {
		return nil, err
	}

	if len(snap.Vectors) != count || len(snap.Texts) != count {
		return nil, fmt.Errorf("namespace %s expects %d entries, found %d vectors and %d chunks",
			s.namespace, count, len(snap.Vectors), len(snap.Texts))
	}
	return &snap, nil
}

// Clear removes the namespace
func (s *Store) Clear() error {
	return s.db.withTx(func(tx *sql.Tx) error {
		return deleteNamespace(tx, s.namespace)
	})
}

// Close closes the database only when this store opened it
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func deleteNamespace(tx *sql.Tx, namespace string) error {
	for _, table := range []string{"index_vectors", "index_chunks", "index_meta"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE namespace = ?", namespace); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func loadVectors(tx *sql.Tx, namespace string) ([][]float32, error) {
	rows, err := tx.Query(`
		SELECT position, vector FROM index_vectors
		WHERE namespace = ?
		ORDER BY position ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vectors [][]float32
	for rows.Next() {
		var (
			pos  int
			blob []byte
		)
		if err := rows.Scan(&pos, &blob); err != nil {
			return nil, err
		}
		if pos != len(vectors) {
			return nil, fmt.Errorf("vector positions have a gap at %d", len(vectors))
		}
		v, err := storage.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", pos, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

func loadChunks(tx *sql.Tx, namespace string) ([]string, error) {
	rows, err := tx.Query(`
		SELECT position, text FROM index_chunks
		WHERE namespace = ?
		ORDER BY position ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var texts []string
	for rows.Next() {
		var (
			pos  int
			text string
		)
		if err := rows.Scan(&pos, &text); err != nil {
			return nil, err
		}
		if pos != len(texts) {
			return nil, fmt.Errorf("chunk positions have a gap at %d", len(texts))
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}
