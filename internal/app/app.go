// ABOUTME: Wires configuration, models, stores, and the pipeline into one service
// ABOUTME: Shared by the HTTP server, the MCP server, and the CLI
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/extract"
	"github.com/harper/ragdoc/internal/llm"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/storage"
	"github.com/harper/ragdoc/internal/storage/sqlite"
)

// SQLiteFileName is the database file used by the sqlite backend
const SQLiteFileName = "index.db"

// App owns every long-lived component
type App struct {
	Config   *config.Config
	Sessions *core.Sessions
	Pipeline *core.Pipeline

	db *sqlite.DB
}

// New builds the embedder and generator from cfg and wires the app
func New(cfg *config.Config) (*App, error) {
	var (
		embedder  storage.Embedder
		generator core.Generator
		client    *llm.OpenAIClient
	)

	if cfg.OpenAIKey != "" {
		var err error
		client, err = llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.VectorDimension,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			BatchSize:      cfg.EmbedBatchSize,
			Concurrency:    4,
			RateLimit:      cfg.EmbedRateLimit,
		})
		if err != nil {
			return nil, err
		}
		generator = client
	} else {
		log.Warn("OPENAI_API_KEY not set; answers will list retrieved sources only")
	}

	switch cfg.Embedder {
	case config.EmbedderHash:
		embedder = llm.NewHashEmbedder(cfg.VectorDimension)
	case config.EmbedderOpenAI:
		if err := cfg.RequireOpenAIKey(); err != nil {
			return nil, fmt.Errorf("%w (or set RAG_EMBEDDER=hash)", err)
		}
		embedder = client
	default:
		return nil, fmt.Errorf("%w: unknown embedder %q", models.ErrInvalidConfiguration, cfg.Embedder)
	}

	return NewWithCollaborators(cfg, embedder, generator)
}

// NewWithCollaborators wires the app around an injected embedder and generator.
// generator may be nil, in which case every answer degrades to its sources.
func NewWithCollaborators(cfg *config.Config, embedder storage.Embedder, generator core.Generator) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunker, err := core.NewChunker(core.ChunkerConfig{
		Size:      cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		MinLength: cfg.MinChunkLength,
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}

	var factory core.StoreFactory
	switch cfg.StoreBackend {
	case config.BackendMemory:
	case config.BackendFile:
		factory = func(sessionID string) (storage.Store, error) {
			return storage.NewFileStore(filepath.Join(cfg.StorePath, "sessions", sessionID))
		}
	case config.BackendSQLite:
		a.db, err = sqlite.Open(filepath.Join(cfg.StorePath, SQLiteFileName))
		if err != nil {
			return nil, err
		}
		db := a.db
		factory = func(sessionID string) (storage.Store, error) {
			return sqlite.NewStore(db, sessionID), nil
		}
	}

	a.Sessions = core.NewSessions(cfg.VectorDimension, embedder, factory)
	a.Sessions.SetLimit(cfg.MaxSessions)
	a.Pipeline = core.NewPipeline(chunker, generator, core.PipelineConfig{
		TopK:              cfg.TopK,
		GenerationTimeout: cfg.GenerationTimeout,
	})

	log.Debug("app ready", "backend", cfg.StoreBackend, "embedder", cfg.Embedder, "dimension", cfg.VectorDimension)
	return a, nil
}

// OpenStore opens a standalone store for one namespace. The memory backend
// returns a nil store.
func OpenStore(backend, path, namespace string) (storage.Store, error) {
	switch backend {
	case config.BackendMemory:
		return nil, nil
	case config.BackendFile:
		return storage.NewFileStore(filepath.Join(path, "sessions", namespace))
	case config.BackendSQLite:
		return sqlite.OpenStore(filepath.Join(path, SQLiteFileName), namespace)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", models.ErrInvalidConfiguration, backend)
	}
}

// Ingest loads text as the only document of the session
func (a *App) Ingest(ctx context.Context, sessionID, documentID, text string) (models.IngestResult, error) {
	session, err := a.Sessions.Get(sessionID)
	if err != nil {
		return models.IngestResult{DocumentID: documentID, Message: err.Error()}, err
	}
	return a.Pipeline.Ingest(ctx, session, documentID, text)
}

// IngestFile extracts the file at path and ingests it under its base name
func (a *App) IngestFile(ctx context.Context, sessionID, path string) (models.IngestResult, error) {
	documentID := filepath.Base(path)
	text, err := extract.ExtractFile(path)
	if err != nil {
		return models.IngestResult{DocumentID: documentID, Message: "Could not read the document."}, err
	}
	return a.Ingest(ctx, sessionID, documentID, text)
}

// Ask answers question against the session's document
func (a *App) Ask(ctx context.Context, sessionID, question string, k int) (models.Answer, error) {
	session, err := a.Sessions.Get(sessionID)
	if err != nil {
		return models.Answer{}, err
	}
	return a.Pipeline.Answer(ctx, session, question, k), nil
}

// Reset empties the session
func (a *App) Reset(sessionID string) error {
	session, err := a.Sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return session.Reset()
}

// Close releases stores and the database
func (a *App) Close() error {
	var errs []error
	if err := a.Sessions.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewSession mints a session id for a new client
func (a *App) NewSession() (string, error) {
	s, err := a.Sessions.Create()
	if err != nil {
		return "", err
	}
	return s.ID(), nil
}
