// Package chunk splits extracted document text into bounded, overlapping
// spans suitable for embedding and search.
package chunk

import "strings"

// Options tune chunking.
type Options struct {
	// ChunkSize is the target chunk length in characters. Zero selects 1000.
	ChunkSize int
	// ChunkOverlap is carried from the tail of each chunk into the next.
	// Values >= ChunkSize are clamped.
	ChunkOverlap int
	// PreserveStructure prefers paragraph boundaries over fixed windows.
	PreserveStructure bool
}

const defaultChunkSize = 1000

// Split breaks text into chunks per opts. Empty or whitespace-only input
// yields no chunks.
func Split(text string, opts Options) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	size := opts.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	if opts.PreserveStructure {
		return splitParagraphs(text, size, overlap)
	}
	return splitWindows(text, size, overlap)
}

// splitWindows emits fixed-size character windows, each starting overlap
// characters before the previous window's end. Windows are cut on rune
// boundaries so multibyte text never yields invalid UTF-8.
func splitWindows(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// splitParagraphs packs whole paragraphs up to the target size, splitting
// oversized paragraphs at sentence boundaries. Overlap is carried as the
// tail of the previous chunk.
func splitParagraphs(text string, size, overlap int) []string {
	var pieces []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= size {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, splitSentences(para, size)...)
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
	}
	for _, piece := range pieces {
		if cur.Len() > 0 && cur.Len()+len(piece)+2 > size {
			flush()
		}
		if cur.Len() == 0 && overlap > 0 && len(chunks) > 0 {
			prev := chunks[len(chunks)-1]
			if tail := []rune(prev); len(tail) > overlap {
				prev = string(tail[len(tail)-overlap:])
			}
			cur.WriteString(prev)
			cur.WriteString("\n")
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(piece)
	}
	flush()
	return chunks
}

// splitSentences cuts an oversized paragraph at sentence ends, falling back
// to hard windows for run-on text.
func splitSentences(para string, size int) []string {
	var out []string
	var cur strings.Builder
	start := 0
	for i := 0; i < len(para); i++ {
		c := para[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		sentence := para[start : i+1]
		start = i + 1
		if cur.Len() > 0 && cur.Len()+len(sentence) > size {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(sentence)
	}
	if start < len(para) {
		rest := para[start:]
		if cur.Len() > 0 && cur.Len()+len(rest) > size {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(rest)
	}
	if cur.Len() > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	// A single sentence longer than size still needs cutting.
	var final []string
	for _, s := range out {
		if len(s) <= size {
			final = append(final, s)
			continue
		}
		final = append(final, splitWindows(s, size, 0)...)
	}
	return final
}
