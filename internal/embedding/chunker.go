package embedding

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 80
	DefaultChunkOverlap = 20
)

// ErrInvalidChunking is returned for chunk settings that cannot make progress.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunker splits text into overlapping windows of whitespace-separated words.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates size and overlap. Overlap must stay below size so every
// window advances.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window length in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of words shared by neighbouring windows.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the windows in order. A window starts every size-overlap
// words until the start passes the last word, so the tail may repeat words
// already covered. Empty text yields no windows.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+c.size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}
