// ABOUTME: Tests for the OpenAI client against a local fake API server
// ABOUTME: Covers batching order, retries, permanent errors, and chat replies
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/ragdoc/internal/models"
)

type fakeAPI struct {
	mu            sync.Mutex
	embedCalls    int
	chatCalls     atomic.Int64
	failFirst     int
	failStatus    int
	reply         string
	lastMaxTokens int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding embedding request: %v", err)
		}

		f.mu.Lock()
		f.embedCalls++
		fail := f.embedCalls <= f.failFirst
		f.mu.Unlock()
		if fail {
			writeAPIError(w, f.failStatus)
			return
		}

		// reply out of order so the client must honour the index field
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 1},
			})
		}
		writeJSON(w, map[string]any{"object": "list", "data": data, "model": "test"})
	})

	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MaxTokens int `json:"max_tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		n := f.chatCalls.Add(1)
		f.mu.Lock()
		f.lastMaxTokens = req.MaxTokens
		f.mu.Unlock()
		if int(n) <= f.failFirst {
			writeAPIError(w, f.failStatus)
			return
		}
		writeJSON(w, map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": f.reply},
				"finish_reason": "stop",
			}},
		})
	})

	return mux
}

func (f *fakeAPI) embeds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embedCalls
}

func (f *fakeAPI) maxTokens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMaxTokens
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": "simulated failure", "type": "test_error"},
	})
}

func newTestClient(t *testing.T, api *fakeAPI, batchSize int) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.BatchSize = batchSize
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second

	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	return client
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	if !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Errorf("NewOpenAIClient(\"\") error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestEmbed_PreservesOrderAcrossBatches(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := client.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}
	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d = %v, want first component %d", i, vectors[i], len(text))
		}
	}
	if n := api.embeds(); n != 3 {
		t.Errorf("embedding requests = %d, want 3 batches", n)
	}
}

func TestEmbed_Empty(t *testing.T) {
	client := newTestClient(t, &fakeAPI{}, 4)

	vectors, err := client.Embed(context.Background(), nil)
	if err != nil || len(vectors) != 0 {
		t.Errorf("Embed(nil) = %v, %v; want empty, nil", vectors, err)
	}
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	api := &fakeAPI{failFirst: 2, failStatus: http.StatusInternalServerError}
	client := newTestClient(t, api, 10)

	if _, err := client.Embed(context.Background(), []string{"hello"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if n := api.embeds(); n != 3 {
		t.Errorf("embedding requests = %d, want 3", n)
	}
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	api := &fakeAPI{failFirst: 100, failStatus: http.StatusUnauthorized}
	client := newTestClient(t, api, 10)

	if _, err := client.Embed(context.Background(), []string{"hello"}); err == nil {
		t.Fatal("Embed() succeeded against a failing API")
	}
	if n := api.embeds(); n != 1 {
		t.Errorf("embedding requests = %d, want 1", n)
	}
}

func TestGenerate(t *testing.T) {
	api := &fakeAPI{reply: "The answer is 42."}
	client := newTestClient(t, api, 10)

	reply, err := client.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "The answer is 42." {
		t.Errorf("Generate() = %q", reply)
	}
	if n := api.maxTokens(); n != 300 {
		t.Errorf("max_tokens = %d, want 300", n)
	}
}

func TestGenerate_FailureIsWrapped(t *testing.T) {
	api := &fakeAPI{failFirst: 100, failStatus: http.StatusServiceUnavailable}
	client := newTestClient(t, api, 10)

	_, err := client.Generate(context.Background(), "system", "user")
	if !errors.Is(err, models.ErrGenerationFailure) {
		t.Errorf("Generate() error = %v, want ErrGenerationFailure", err)
	}
	if got := api.chatCalls.Load(); got != 4 {
		t.Errorf("chat requests = %d, want 4 (1 + 3 retries)", got)
	}
}
