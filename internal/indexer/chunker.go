// Package indexer reads document directories and splits documents into passages.
package indexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/kura/internal/models"
)

// ValidateChunking checks chunk size and overlap. Both are measured in runes.
func ValidateChunking(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrConfig, chunkSize)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", models.ErrConfig, overlap)
	}
	if overlap >= chunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", models.ErrConfig, overlap, chunkSize)
	}
	return nil
}

// Split cuts text into windows of at most chunkSize runes. Each window ends at the last
// paragraph break, else the last sentence end, else the last whitespace that leaves more
// than overlap runes in the window, else at exactly chunkSize. The next window starts
// overlap runes before the previous one ended. Whitespace-only windows are dropped.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := ValidateChunking(chunkSize, overlap); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}
	var chunks []string
	add := func(w []rune) {
		// Windows inside a long whitespace run carry no text.
		if c := string(w); strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	start := 0
	for {
		if start+chunkSize >= len(runes) {
			add(runes[start:])
			return chunks, nil
		}
		end := start + cutPoint(runes[start:start+chunkSize], overlap)
		add(runes[start:end])
		start = end - overlap
	}
}

// cutPoint returns the chunk length to take from window; always greater than overlap.
func cutPoint(window []rune, overlap int) int {
	floor := overlap + 1
	for _, find := range []func([]rune) int{lastParagraphBreak, lastSentenceEnd, lastSpace} {
		if cut := find(window); cut >= floor {
			return cut
		}
	}
	return len(window)
}

func lastParagraphBreak(w []rune) int {
	for i := len(w) - 2; i >= 0; i-- {
		if w[i] == '\n' && w[i+1] == '\n' {
			return i + 2
		}
	}
	return 0
}

func lastSentenceEnd(w []rune) int {
	for i := len(w) - 2; i >= 0; i-- {
		switch w[i] {
		case '.', '!', '?':
			if unicode.IsSpace(w[i+1]) {
				return i + 2
			}
		}
	}
	return 0
}

func lastSpace(w []rune) int {
	for i := len(w) - 1; i >= 0; i-- {
		if unicode.IsSpace(w[i]) {
			return i + 1
		}
	}
	return 0
}

// Chunker splits documents into passages with a fixed size and overlap.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in runes).
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if err := ValidateChunking(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Chunk splits text into passages attributed to sourceID, in document order.
func (c *Chunker) Chunk(sourceID, text string) []models.Passage {
	// Parameters were validated by NewChunker.
	parts, _ := Split(text, c.chunkSize, c.chunkOverlap)
	if len(parts) == 0 {
		return nil
	}
	passages := make([]models.Passage, len(parts))
	for i, part := range parts {
		passages[i] = models.Passage{
			Text:       part,
			SourceID:   sourceID,
			ChunkIndex: i,
			ChunkCount: len(parts),
		}
	}
	return passages
}
