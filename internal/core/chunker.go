// ABOUTME: Chunker splits a document into overlapping word-aligned windows
// ABOUTME: Works on runes of whitespace-normalised text so offsets are stable
package core

import (
	"fmt"
	"strings"

	"github.com/harper/ragdoc/internal/models"
)

// ChunkerConfig sizes are measured in runes
type ChunkerConfig struct {
	Size      int
	Overlap   int
	MinLength int
}

// DefaultChunkerConfig returns the sizes used when nothing is configured
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{Size: 800, Overlap: 200, MinLength: 20}
}

// Validate reports an ErrInvalidConfiguration for impossible sizes
func (c ChunkerConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfiguration, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", models.ErrInvalidConfiguration, c.Size, c.Overlap)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("%w: minimum chunk length must not be negative, got %d", models.ErrInvalidConfiguration, c.MinLength)
	}
	return nil
}

// Chunker is stateless after construction and safe for concurrent use
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker validates cfg
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the sizes the chunker was built with
func (c *Chunker) Config() ChunkerConfig {
	return c.cfg
}

// Normalize collapses every run of whitespace to a single space and trims the ends
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits text into windows of at most Size runes. A window that does not
// reach the end of the text ends at the last space after its start; the next
// window starts Overlap runes earlier, moved forward to the next word start.
// Chunks shorter than MinLength are dropped and the rest numbered densely.
// Without overlap the words of a dropped final window appear in no chunk.
func (c *Chunker) Chunk(text string) []models.Chunk {
	runes := []rune(Normalize(text))
	n := len(runes)
	chunks := []models.Chunk{}

	start := 0
	for start < n {
		end := start + c.cfg.Size
		if end >= n {
			end = n
		} else if runes[end] != ' ' {
			// pull back to the last space; a single overlong word is split hard
			j := end - 1
			for j > start && runes[j] != ' ' {
				j--
			}
			if j > start {
				end = j
			}
		}

		if end-start >= c.cfg.MinLength {
			chunks = append(chunks, models.Chunk{
				Index: len(chunks),
				Text:  string(runes[start:end]),
				Start: start,
				End:   end,
			})
		}

		if end == n {
			break
		}

		next := end - c.cfg.Overlap
		if next <= start {
			next = end
		}
		for next < end && next > 0 && runes[next-1] != ' ' {
			next++
		}
		if next < n && runes[next] == ' ' {
			next++
		}
		start = next
	}

	return chunks
}
