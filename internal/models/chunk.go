// ABOUTME: Chunk represents an immutable span of a normalised document
// ABOUTME: Carries its sequence index and rune offsets for context assembly
package models

import "unicode/utf8"

// Chunk is one overlapping window of a document produced by the chunker
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	// Start and End are rune offsets into the normalised document text
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the chunk length in runes
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// ChunkTexts returns the chunk texts in order
func ChunkTexts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

// ChunksFromTexts rebuilds chunks from persisted texts; offsets are unknown
// after a restart so they are left at -1
func ChunksFromTexts(texts []string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Index: i, Text: t, Start: -1, End: -1}
	}
	return chunks
}
