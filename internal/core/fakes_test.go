// ABOUTME: Deterministic embedder and generator doubles for core tests
// ABOUTME: The embedder counts vocabulary words so similarity is predictable
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harper/ragdoc/internal/storage"
)

// keywordEmbedder maps each text to word counts over a fixed vocabulary
type keywordEmbedder struct {
	vocab  []string
	failOn string
	calls  atomic.Int64
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if e.failOn != "" && strings.Contains(text, e.failOn) {
			return nil, errors.New("embedding service unavailable")
		}
		v := make([]float32, len(e.vocab))
		for _, word := range strings.Fields(strings.ToLower(text)) {
			for j, w := range e.vocab {
				if word == w {
					v[j]++
				}
			}
		}
		out[i] = v
	}
	return out, nil
}

// fakeGenerator records prompts and replies with a fixed answer
type fakeGenerator struct {
	reply string
	err   error
	block bool

	mu      sync.Mutex
	prompts []string
	calls   atomic.Int64
}

func (g *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.prompts = append(g.prompts, user)
	g.mu.Unlock()

	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

var testVocab = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}

// saveFailingStore wraps a real store and refuses Save while failSave is set
type saveFailingStore struct {
	storage.Store
	failSave atomic.Bool
}

func (s *saveFailingStore) Save(snap *storage.Snapshot) error {
	if s.failSave.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(snap)
}
