package corpus

import (
	"fmt"
	"unicode/utf8"
)

// Chunk is a contiguous slice of a document's text.
type Chunk struct {
	// Source is the originating document path.
	Source string

	// Offset is the byte offset of the chunk's first character within the
	// document. Together with Source it identifies a chunk across runs.
	Offset int

	// Text is the chunk content, at most the chunker's size in length.
	Text string
}

// Chunker splits documents into fixed-size chunks with overlap between
// consecutive chunks.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. Overlap must be non-negative and strictly
// smaller than size or the split cannot advance.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split divides a document into chunks. Chunk i starts at i*(size-overlap)
// and covers up to size characters; the final chunk may be shorter. An empty
// document yields no chunks. Chunks are returned in document order.
//
// Boundaries never bisect a rune: a boundary landing inside a multi-byte
// UTF-8 sequence snaps back to the rune's first byte, so every chunk is
// valid UTF-8 when the document is.
func (c *Chunker) Split(doc Document) []Chunk {
	text := doc.Text
	if len(text) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(text); {
		end := start + c.size
		if end >= len(text) {
			end = len(text)
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if end == start {
				// size is smaller than the rune at start; emit it whole
				_, n := utf8.DecodeRuneInString(text[start:])
				end = start + n
			}
		}
		chunks = append(chunks, Chunk{
			Source: doc.Path,
			Offset: start,
			Text:   text[start:end],
		})
		// The last chunk reaches the end of the document; a further stride
		// would only re-cover overlap already emitted.
		if end == len(text) {
			break
		}
		next := start + stride
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next == start {
			// stride landed inside the rune at start; step over it
			_, n := utf8.DecodeRuneInString(text[start:])
			next = start + n
		}
		start = next
	}
	return chunks
}
