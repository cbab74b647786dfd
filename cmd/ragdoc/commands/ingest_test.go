// ABOUTME: End-to-end tests for the ingest and ask commands
// ABOUTME: Runs the CLI offline with the hash embedder and a temporary store

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/ragdoc/internal/models"
)

const testDocument = `Tide pools hold anemones, crabs, and small fish between the rocks.
Glaciers carve valleys slowly over thousands of years of pressure.`

func offlineEnv(t *testing.T, backend string) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RAG_CONFIG", "")
	t.Setenv("RAG_EMBEDDER", "hash")
	t.Setenv("RAG_VECTOR_DIMENSION", "128")
	t.Setenv("RAG_CHUNK_SIZE", "70")
	t.Setenv("RAG_CHUNK_OVERLAP", "0")
	t.Setenv("RAG_MIN_CHUNK_LENGTH", "5")
	t.Setenv("RAG_STORE_BACKEND", backend)
	t.Setenv("RAG_STORE_PATH", t.TempDir())
	t.Setenv("RAG_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestIngestThenAskAcrossRuns(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			offlineEnv(t, backend)
			doc := writeDoc(t, "nature.md", testDocument)

			out, err := run(t, "--format", "json", "ingest", doc)
			if err != nil {
				t.Fatalf("ingest error = %v\n%s", err, out)
			}
			var res models.IngestResult
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("ingest output is not JSON: %v\n%s", err, out)
			}
			if !res.Indexed || res.ChunkCount != 2 || res.DocumentID != "nature.md" {
				t.Fatalf("ingest = %+v", res)
			}

			// A fresh process restores the persisted index.
			out, err = run(t, "--format", "json", "ask", "--k", "1", "glaciers carve valleys")
			if err != nil {
				t.Fatalf("ask error = %v\n%s", err, out)
			}
			var ans models.Answer
			if err := json.Unmarshal([]byte(out), &ans); err != nil {
				t.Fatalf("ask output is not JSON: %v\n%s", err, out)
			}
			if ans.Status != models.AnswerGenerationFailed {
				t.Errorf("status = %s, want generation_failed without a model", ans.Status)
			}
			if len(ans.Sources) != 1 || !strings.HasPrefix(ans.Sources[0], "Glaciers") {
				t.Errorf("sources = %v, want the glacier chunk", ans.Sources)
			}
		})
	}
}

func TestAskTextOutput(t *testing.T) {
	offlineEnv(t, "file")
	doc := writeDoc(t, "nature.txt", testDocument)

	if out, err := run(t, "ingest", doc); err != nil || !strings.Contains(out, "Indexed 2 chunk(s) from nature.txt") {
		t.Fatalf("ingest = %q, %v", out, err)
	}

	out, err := run(t, "ask", "tide pools")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	for _, want := range []string{models.GenerationFailedAnswer, "RANK", "SOURCE", "status: generation_failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "--quiet", "ask", "tide pools")
	if err != nil {
		t.Fatalf("quiet ask error = %v", err)
	}
	if strings.Contains(out, "RANK") {
		t.Errorf("quiet output should omit sources:\n%s", out)
	}
}

func TestAskWithoutDocument(t *testing.T) {
	offlineEnv(t, "file")

	out, err := run(t, "ask", "anything")
	if err != nil {
		t.Fatalf("ask error = %v", err)
	}
	if !strings.Contains(out, models.NoDocumentAnswer) {
		t.Errorf("output = %q, want the no-document answer", out)
	}
}

func TestIngestErrors(t *testing.T) {
	offlineEnv(t, "file")

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"ingest", filepath.Join(t.TempDir(), "missing.txt")}},
		{"unsupported type", []string{"ingest", writeDoc(t, "scan.pdf", "%PDF-1.4")}},
		{"blank document", []string{"ingest", writeDoc(t, "blank.txt", "   \n ")}},
		{"bad session", []string{"ingest", "--session", "../up", writeDoc(t, "ok.txt", testDocument)}},
		{"no args", []string{"ingest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAskRejectsNonPositiveK(t *testing.T) {
	offlineEnv(t, "memory")

	if _, err := run(t, "ask", "--k", "0", "question"); err == nil {
		t.Error("expected error for --k 0")
	}
}

func TestInvalidConfig(t *testing.T) {
	offlineEnv(t, "file")
	t.Setenv("RAG_CHUNK_OVERLAP", "500")

	if _, err := run(t, "ask", "question"); err == nil {
		t.Error("expected configuration error")
	}
}
