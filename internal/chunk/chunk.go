// Package chunk splits source text into fixed-size, overlapping windows
// measured in Unicode scalar values (runes), never bytes. Chunk boundaries
// always fall on rune boundaries, so multi-byte UTF-8 sequences are never
// split across chunks.
package chunk

import "fmt"

// Chunk is a single overlapping window of a source file's text.
type Chunk struct {
	Text       string
	FilePath   string
	StartByte  int
	EndByte    int
	ChunkIndex int
}

// Chunker splits text into overlapping windows of a fixed character size.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New constructs a Chunker. chunk_size must be positive and overlap must be
// strictly less than chunk_size; both are measured in characters
// (Unicode scalar values), not bytes.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be > 0, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be >= 0, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be < chunk size, got overlap=%d chunk_size=%d", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured window size in characters.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap size in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into overlapping windows. Windows are computed over rune
// indices and translated back to byte offsets, so every returned chunk is a
// valid UTF-8 slice of text regardless of multi-byte characters. Empty input
// yields an empty, non-nil-safe result (nil slice, no error).
func (c *Chunker) Chunk(text, filePath string) []Chunk {
	// runeOffsets[i] is the byte offset of the i-th rune; the final entry
	// is len(text), so byte offsets for a one-past-the-end rune index are
	// always available without a bounds check.
	runeOffsets := make([]int, 0, len(text)+1)
	for i := range text {
		runeOffsets = append(runeOffsets, i)
	}
	runeOffsets = append(runeOffsets, len(text))

	numRunes := len(runeOffsets) - 1
	if numRunes == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for start := 0; start < numRunes; start += step {
		end := start + c.chunkSize
		if end > numRunes {
			end = numRunes
		}

		byteStart := runeOffsets[start]
		byteEnd := runeOffsets[end]

		chunks = append(chunks, Chunk{
			Text:       text[byteStart:byteEnd],
			FilePath:   filePath,
			StartByte:  byteStart,
			EndByte:    byteEnd,
			ChunkIndex: len(chunks),
		})

		if end == numRunes {
			break
		}
	}

	return chunks
}
