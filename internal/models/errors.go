// ABOUTME: Error taxonomy shared by every layer of the retrieval pipeline
// ABOUTME: Only ErrInvalidConfiguration is allowed to stop the process
package models

import "errors"

var (
	// ErrInvalidConfiguration means chunking or index settings cannot work
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDocumentUnreadable means no text could be extracted from an upload
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrEmbeddingFailure means the embedding model failed or returned a
	// vector of unexpected dimensionality
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrIndexCorruption means the persisted index is missing pieces,
	// truncated, or built for another dimensionality
	ErrIndexCorruption = errors.New("index corruption")
	// ErrGenerationFailure means the language model call failed or timed out
	ErrGenerationFailure = errors.New("generation failure")
)
