// ABOUTME: Tests for the SQLite snapshot store
// ABOUTME: Round trips, namespace isolation, and damaged rows
package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/harper/ragdoc/internal/storage"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSnapshot(doc string) *storage.Snapshot {
	return &storage.Snapshot{
		Generation: uuid.New(),
		DocumentID: doc,
		Dimension:  2,
		Vectors:    [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}},
		Texts:      []string{"alpha", "beta", "gamma"},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(newTestDB(t), "default")
	snap := testSnapshot("guide.txt")

	if err := store.Save(snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Generation != snap.Generation {
		t.Errorf("Generation = %s, want %s", got.Generation, snap.Generation)
	}
	if got.DocumentID != "guide.txt" {
		t.Errorf("DocumentID = %q, want guide.txt", got.DocumentID)
	}
	if err := got.Validate(2); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for i := range snap.Texts {
		if got.Texts[i] != snap.Texts[i] {
			t.Errorf("text[%d] = %q, want %q", i, got.Texts[i], snap.Texts[i])
		}
		for j := range snap.Vectors[i] {
			if got.Vectors[i][j] != snap.Vectors[i][j] {
				t.Errorf("vector[%d][%d] = %v, want %v", i, j, got.Vectors[i][j], snap.Vectors[i][j])
			}
		}
	}
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	store := NewStore(newTestDB(t), "default")
	if err := store.Save(testSnapshot("first.txt")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := &storage.Snapshot{
		Generation: uuid.New(),
		DocumentID: "second.txt",
		Dimension:  2,
		Vectors:    [][]float32{{1, 0}},
		Texts:      []string{"only"},
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.DocumentID != "second.txt" || len(got.Texts) != 1 || got.Texts[0] != "only" {
		t.Errorf("Load() = %+v, want only the second snapshot", got)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(newTestDB(t), "nothing-here")

	if _, err := store.Load(); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	db := newTestDB(t)
	a := NewStore(db, "session-a")
	b := NewStore(db, "session-b")

	if err := a.Save(testSnapshot("a.txt")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := b.Load(); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("b.Load() error = %v, want ErrSnapshotNotFound", err)
	}

	if err := b.Save(testSnapshot("b.txt")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := a.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatalf("b.Load() error = %v", err)
	}
	if got.DocumentID != "b.txt" {
		t.Errorf("b.Load() DocumentID = %q, want b.txt", got.DocumentID)
	}
	if _, err := a.Load(); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("a.Load() after Clear error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_MissingChunkRowIsDetected(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, "default")
	if err := store.Save(testSnapshot("doc")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := db.Conn().Exec("DELETE FROM index_chunks WHERE position = 2"); err != nil {
		t.Fatalf("deleting chunk row: %v", err)
	}

	_, err := store.Load()
	if err == nil {
		t.Fatal("Load() succeeded with a missing chunk row")
	}
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("Load() error = %v, want a corruption error", err)
	}
}

func TestStore_SaveRejectsMismatchedSnapshot(t *testing.T) {
	store := NewStore(newTestDB(t), "default")
	snap := testSnapshot("doc")
	snap.Texts = snap.Texts[:2]

	if err := store.Save(snap); err == nil {
		t.Fatal("Save() accepted mismatched vectors and texts")
	}
	if _, err := store.Load(); !errors.Is(err, storage.ErrSnapshotNotFound) {
		t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_FailedSaveKeepsPrevious(t *testing.T) {
	store := NewStore(newTestDB(t), "default")
	if err := store.Save(testSnapshot("first.txt")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	bad := testSnapshot("second.txt")
	bad.Vectors[2] = []float32{1, 2, 3}
	if err := store.Save(bad); err == nil {
		t.Fatal("Save() accepted a vector of the wrong dimension")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.DocumentID != "first.txt" || len(got.Texts) != 3 {
		t.Errorf("Load() = %s with %d chunks, want first.txt with 3", got.DocumentID, len(got.Texts))
	}
}

func TestStore_BacksVectorIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := OpenStore(path, "default")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}

	snap := testSnapshot("doc")
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenStore(path, "default")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	vi := storage.NewVectorIndex(2, "", nil, reopened)
	if err := vi.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if vi.Len() != 3 {
		t.Errorf("Len() = %d, want 3", vi.Len())
	}

	hits := vi.SearchVector([]float32{0, 1}, 1)
	if len(hits) != 1 || hits[0].Text != "beta" {
		t.Errorf("SearchVector() = %+v, want beta first", hits)
	}
}
