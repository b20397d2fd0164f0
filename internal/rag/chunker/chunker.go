// Package chunker splits extracted text into overlapping chunks, cutting
// at paragraph and sentence boundaries where possible.
package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"ragline/internal/domain"
)

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split produces chunks in document order. Every byte of text is covered
// by at least one chunk span, and consecutive spans overlap by the
// configured amount unless the previous chunk was shorter than that.
// Empty input yields no chunks; input shorter than the chunk size yields
// exactly one.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	for start < len(text) {
		cut := c.cutAt(text, start)

		// a window of pure whitespace carries nothing worth embedding
		if chunkText := strings.TrimSpace(text[start:cut]); chunkText != "" {
			chunks = append(chunks, domain.Chunk{
				ChunkID:     documentID + ":" + strconv.Itoa(len(chunks)),
				DocumentID:  documentID,
				Text:        chunkText,
				StartOffset: start,
				EndOffset:   cut,
			})
		}

		if cut >= len(text) {
			break
		}

		next := cut - c.overlap
		if next <= start {
			// overlap would swallow the whole previous chunk; reduce it
			// so the split still makes progress
			next = start + 1
		}
		for next > 0 && !utf8.RuneStart(text[next]) {
			next--
		}
		start = next
	}
	return chunks
}

// cutAt picks the end of the chunk starting at start. Preference order:
// paragraph break, sentence end, line break, word break; a hard cut is
// the last resort so a boundary-free run cannot grow without bound.
func (c *Chunker) cutAt(text string, start int) int {
	if len(text)-start <= c.size {
		return len(text)
	}
	window := start + c.size

	if cut := lastParagraphBreak(text, start, window); cut > start {
		return skipSpace(text, cut)
	}
	if cut := lastSentenceEnd(text, start, window); cut > start {
		return skipSpace(text, cut)
	}
	if cut := strings.LastIndexByte(text[start:window], '\n'); cut > 0 {
		return skipSpace(text, start+cut+1)
	}
	if cut := strings.LastIndexByte(text[start:window], ' '); cut > 0 {
		return skipSpace(text, start+cut+1)
	}

	// hard cut, backed up to a rune start so UTF-8 stays intact
	for window > start+1 && !utf8.RuneStart(text[window]) {
		window--
	}
	return window
}

func lastParagraphBreak(text string, start, end int) int {
	if i := strings.LastIndex(text[start:end], "\n\n"); i > 0 {
		return start + i + 2
	}
	return -1
}

// lastSentenceEnd returns the position just past the last sentence
// terminator in [start, end) that is followed by whitespace or the end
// of the input.
func lastSentenceEnd(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if isCJKTerminator(text, i) {
			return i + 3
		}
		if !isSentenceTerminator(rune(text[i])) {
			continue
		}
		after := i + 1
		if after >= len(text) || text[after] == ' ' || text[after] == '\n' || text[after] == '\t' {
			return after
		}
	}
	return -1
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// isCJKTerminator reports whether a fullwidth terminator (。！？)
// starts at i. These are always sentence ends regardless of what
// follows.
func isCJKTerminator(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	if size != 3 {
		return false
	}
	return r == '。' || r == '！' || r == '？'
}

func skipSpace(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\n' || text[i] == '\t') {
		i++
	}
	return i
}
