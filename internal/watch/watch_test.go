// ABOUTME: Tests for the document file watcher
// ABOUTME: Verifies change callbacks, filtering of sibling files, and shutdown
package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCallsBackOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done, err := File(ctx, path, 20*time.Millisecond, func(_ context.Context, p string) {
		changed <- p
	})
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0o600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	select {
	case p := <-changed:
		t.Fatalf("callback fired for sibling file: %s", p)
	case <-time.After(150 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		if p != abs {
			t.Errorf("callback path = %s, want %s", p, abs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no callback after write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestFileMissingDirectory(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "missing", "doc.txt"), 0, func(context.Context, string) {})
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
}
