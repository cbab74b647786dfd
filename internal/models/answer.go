// ABOUTME: Answer and ingestion result models returned by the retrieval pipeline
// ABOUTME: Holds the fixed sentinel answers used when a step degrades
package models

// AnswerStatus tells callers which path produced an answer
type AnswerStatus string

const (
	AnswerOK               AnswerStatus = "ok"
	AnswerNoDocument       AnswerStatus = "no_document"
	AnswerQuestionFailed   AnswerStatus = "question_failed"
	AnswerGenerationFailed AnswerStatus = "generation_failed"
)

// Sentinel answers
const (
	NoDocumentAnswer       = "No document loaded. Upload a document first."
	QuestionFailedAnswer   = "Could not process the question. Please try again."
	GenerationFailedAnswer = "Could not generate an answer right now. The retrieved excerpts are listed as sources."
	// NotFoundPhrase is what the language model is told to reply when the
	// context does not contain the answer
	NotFoundPhrase = "Answer not found in document."
)

// Answer is the response to a question
type Answer struct {
	Answer  string       `json:"answer"`
	Sources []string     `json:"sources"`
	Status  AnswerStatus `json:"status"`
}

// IsValid reports whether the status is one of the known values
func (s AnswerStatus) IsValid() bool {
	switch s {
	case AnswerOK, AnswerNoDocument, AnswerQuestionFailed, AnswerGenerationFailed:
		return true
	}
	return false
}

// IngestResult is the response to a document upload
type IngestResult struct {
	Indexed    bool   `json:"indexed"`
	ChunkCount int    `json:"chunk_count"`
	DocumentID string `json:"document_id"`
	Message    string `json:"message,omitempty"`
}
