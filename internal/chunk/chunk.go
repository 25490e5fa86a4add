// Package chunk splits extracted text into bounded reading units.
package chunk

import "strings"

// DefaultMaxChars is the chunk character budget used when none is configured.
const DefaultMaxChars = 200

// Chunk is one bounded unit of text, queued for a single speech-synthesis
// request and one highlight cycle.
type Chunk struct {
	Index       int
	Text        string
	Words       []string
	StartOffset int // character offset of Text within the source region
	EndOffset   int
	SourceRef   string // opaque handle of the originating region
}

type span struct {
	start, end int
}

// Split divides text into chunks of at most maxChunkChars characters,
// breaking only at sentence boundaries. A single sentence longer than the
// budget is emitted whole as its own oversized chunk. Whitespace-only input
// produces no chunks.
func Split(text string, maxChunkChars int) []Chunk {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChars
	}

	whole := trimSpan(text, span{0, len(text)})
	if whole.start >= whole.end {
		return nil
	}

	if whole.end-whole.start <= maxChunkChars {
		return []Chunk{newChunk(text, whole, 0, "")}
	}

	sentences := sentenceSpans(text)
	var chunks []Chunk
	cur := span{-1, -1}

	flush := func() {
		if cur.start >= 0 && cur.end > cur.start {
			chunks = append(chunks, newChunk(text, cur, len(chunks), ""))
		}
		cur = span{-1, -1}
	}

	for _, s := range sentences {
		if cur.start < 0 {
			cur = s
			continue
		}
		if s.end-cur.start <= maxChunkChars {
			cur.end = s.end
			continue
		}
		flush()
		cur = s
	}
	flush()

	return chunks
}

// SplitRegion chunks a single region's text, stamping each chunk with the
// region's ref. Chunk offsets stay region-local.
func SplitRegion(ref, text string, maxChunkChars int) []Chunk {
	chunks := Split(text, maxChunkChars)
	for i := range chunks {
		chunks[i].SourceRef = ref
	}
	return chunks
}

func newChunk(text string, s span, index int, ref string) Chunk {
	t := text[s.start:s.end]
	return Chunk{
		Index:       index,
		Text:        t,
		Words:       strings.Fields(t),
		StartOffset: s.start,
		EndOffset:   s.end,
		SourceRef:   ref,
	}
}

// sentenceSpans locates sentence boundaries: a run of text ending at `.`,
// `!` or `?` followed by whitespace (or end of input). Spans exclude
// surrounding whitespace and are never empty.
func sentenceSpans(text string) []span {
	var spans []span
	n := len(text)
	i := 0
	for i < n {
		for i < n && isSpace(text[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		end := n
		for j := i; j < n; j++ {
			c := text[j]
			if (c == '.' || c == '!' || c == '?') && (j+1 >= n || isSpace(text[j+1])) {
				end = j + 1
				break
			}
		}
		s := trimSpan(text, span{start, end})
		if s.end > s.start {
			spans = append(spans, s)
		}
		i = end
	}
	return spans
}

func trimSpan(text string, s span) span {
	for s.start < s.end && isSpace(text[s.start]) {
		s.start++
	}
	for s.end > s.start && isSpace(text[s.end-1]) {
		s.end--
	}
	return s
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
