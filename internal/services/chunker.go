package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits long text into overlapping pieces that fit the embedding
// model's input limit. Sizes are counted in runes.
type TextChunker struct {
	maxChunkSize int
	overlap      int
}

func NewTextChunker(maxChunkSize, overlap int) *TextChunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}
	return &TextChunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// Split packs paragraphs into chunks, falling back to sentences for
// paragraphs that are too long on their own. Every chunk after the first
// starts with the tail of its predecessor, so a chunk may exceed the limit
// by the overlap.
func (c *TextChunker) Split(text string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentLen = 0

		if tail := lastRunes(chunks[len(chunks)-1], c.overlap); tail != "" {
			current.WriteString(tail)
			currentLen = utf8.RuneCountInString(tail)
		}
	}
	appendPiece := func(piece, sep string) {
		pieceLen := utf8.RuneCountInString(piece)
		if currentLen > 0 && currentLen+len(sep)+pieceLen > c.maxChunkSize {
			flush()
		}
		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += len(sep)
		}
		current.WriteString(piece)
		currentLen += pieceLen
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= c.maxChunkSize {
			appendPiece(para, "\n\n")
			continue
		}

		for _, sentence := range splitSentences(para) {
			for _, piece := range hardSplit(sentence, c.maxChunkSize) {
				appendPiece(piece, " ")
			}
		}
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences cuts after ., ! and ? keeping the punctuation.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit cuts a sentence without punctuation into size-rune pieces.
func hardSplit(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var pieces []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
