// ABOUTME: Retrieval pipeline tying chunking, the session index, and generation together
// ABOUTME: Every failure after ingest degrades to a well-formed Answer
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/ragdoc/internal/models"
)

// ContextSeparator joins retrieved chunks in the prompt
const ContextSeparator = "\n\n---\n\n"

// SystemPrompt restricts the model to the supplied context
const SystemPrompt = "You answer using only the provided context."

// Generator is the external language model
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// PipelineConfig holds per-query settings fixed at startup
type PipelineConfig struct {
	TopK              int
	GenerationTimeout time.Duration
}

// Pipeline is stateless; all document state lives in the Session passed in
type Pipeline struct {
	chunker   *Chunker
	generator Generator
	cfg       PipelineConfig
}

// NewPipeline wires the chunker and generator
func NewPipeline(chunker *Chunker, generator Generator, cfg PipelineConfig) *Pipeline {
	if cfg.TopK < 1 {
		cfg.TopK = 5
	}
	return &Pipeline{
		chunker:   chunker,
		generator: generator,
		cfg:       cfg,
	}
}

// Chunker returns the pipeline's chunker
func (p *Pipeline) Chunker() *Chunker {
	return p.chunker
}

// Ingest chunks rawText and loads it into session, replacing whatever was there.
// Blank text is ErrDocumentUnreadable and leaves the session untouched.
func (p *Pipeline) Ingest(ctx context.Context, session *Session, documentID, rawText string) (models.IngestResult, error) {
	result := models.IngestResult{DocumentID: documentID}

	if Normalize(rawText) == "" {
		result.Message = "Document contains no readable text."
		return result, fmt.Errorf("%w: %s has no text", models.ErrDocumentUnreadable, documentID)
	}

	chunks := p.chunker.Chunk(rawText)
	err := session.Load(ctx, documentID, chunks)
	if err != nil && !errors.Is(err, ErrNotPersisted) {
		result.Message = "Could not index the document. Please try again."
		return result, err
	}
	if err != nil {
		result.Message = "Document indexed, but the index could not be saved and will be lost on restart."
	}

	if len(chunks) == 0 {
		result.Message = fmt.Sprintf("Document is shorter than %d characters; nothing was indexed.", p.chunker.Config().MinLength)
		return result, nil
	}

	result.Indexed = true
	result.ChunkCount = len(chunks)
	log.Info("document ingested", "session", session.ID(), "document", documentID, "chunks", len(chunks))
	return result, nil
}

// Answer retrieves the k chunks closest to question and asks the generator.
// k < 1 uses the configured top-k.
func (p *Pipeline) Answer(ctx context.Context, session *Session, question string, k int) models.Answer {
	view := session.View()
	if !view.Loaded() {
		return models.Answer{
			Answer:  models.NoDocumentAnswer,
			Sources: []string{},
			Status:  models.AnswerNoDocument,
		}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return questionFailed()
	}
	if k < 1 {
		k = p.cfg.TopK
	}

	sources, err := view.Index.Search(ctx, question, k)
	if err != nil {
		log.Warn("question embedding failed", "session", view.ID, "err", err)
		return questionFailed()
	}

	reply, err := p.generate(ctx, BuildPrompt(sources, question))
	if err != nil {
		log.Warn("generation failed", "session", view.ID, "sources", len(sources), "err", err)
		return models.Answer{
			Answer:  models.GenerationFailedAnswer,
			Sources: sources,
			Status:  models.AnswerGenerationFailed,
		}
	}

	return models.Answer{
		Answer:  reply,
		Sources: sources,
		Status:  models.AnswerOK,
	}
}

// BuildPrompt lays out the retrieved context followed by the question
func BuildPrompt(sources []string, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(sources, ContextSeparator))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer only from the context. If the answer is not in the context, say: ")
	b.WriteString(models.NotFoundPhrase)
	return b.String()
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", models.ErrGenerationFailure)
	}

	if p.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GenerationTimeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := p.generator.Generate(ctx, SystemPrompt, prompt)
		done <- result{text, err}
	}()

	// return at the deadline even if the generator ignores ctx
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", models.ErrGenerationFailure, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, models.ErrGenerationFailure) {
				return "", r.err
			}
			return "", fmt.Errorf("%w: %w", models.ErrGenerationFailure, r.err)
		}
		reply := strings.TrimSpace(r.text)
		if reply == "" {
			return "", fmt.Errorf("%w: empty reply", models.ErrGenerationFailure)
		}
		return reply, nil
	}
}

func questionFailed() models.Answer {
	return models.Answer{
		Answer:  models.QuestionFailedAnswer,
		Sources: []string{},
		Status:  models.AnswerQuestionFailed,
	}
}
