// Package highlight paints chunk- and word-level emphasis onto a document of
// text-bearing elements, keeping every mutation exactly reversible.
package highlight

import (
	"strings"

	"github.com/metcalfc/aloud/internal/chunk"
)

// Element is one text-bearing node of a document. The original text is kept
// as an immutable snapshot; word-wrapping builds a disposable tokenized view
// on top of it.
type Element struct {
	Ref string

	orig  string
	spans []string // tokenized view, nil while unwrapped
}

// Content returns the element's current textual content: the original
// snapshot while unwrapped, the joined token view while wrapped.
func (e *Element) Content() string {
	if e.spans != nil {
		return strings.Join(e.spans, " ")
	}
	return e.orig
}

// Wrapped reports whether the element currently carries a tokenized view.
func (e *Element) Wrapped() bool {
	return e.spans != nil
}

// Document holds the ordered elements of one reading session.
type Document struct {
	elems []*Element
	byRef map[string]*Element
}

func NewDocument() *Document {
	return &Document{byRef: make(map[string]*Element)}
}

// AddElement appends a text-bearing element. Refs are expected to be unique;
// a duplicate ref keeps the first element.
func (d *Document) AddElement(ref, text string) {
	e := &Element{Ref: ref, orig: text}
	d.elems = append(d.elems, e)
	if _, exists := d.byRef[ref]; !exists {
		d.byRef[ref] = e
	}
}

// Element returns the element with the given ref, or nil.
func (d *Document) Element(ref string) *Element {
	return d.byRef[ref]
}

// Elements returns the document's elements in order.
func (d *Document) Elements() []*Element {
	return d.elems
}

// Renderer owns all highlight state for a document. At most one element is
// active (and possibly wrapped) at a time, and at most one word span carries
// the word-level highlight.
type Renderer struct {
	doc *Document

	chunkScheme Scheme
	wordScheme  Scheme
	wordLevel   bool // word-level highlighting enabled

	active       *Element
	wholeElement bool // soft fallback: chunk text not located, whole element lit

	// wrapped mode: span indices within the active element
	wordOffset         int
	spanStart, spanEnd int
	wordSpan           int // span carrying the word highlight, -1 for none

	// unwrapped mode: byte range within the active element's snapshot
	byteStart, byteEnd int

	activeLine int // set by Render, consumed for auto-scroll
}

// NewRenderer creates a renderer over doc. wordLevel enables the per-word
// highlight layer; when false only chunk-level emphasis is painted.
func NewRenderer(doc *Document, chunkScheme, wordScheme Scheme, wordLevel bool) *Renderer {
	return &Renderer{
		doc:         doc,
		chunkScheme: chunkScheme,
		wordScheme:  wordScheme,
		wordLevel:   wordLevel,
		wordSpan:    -1,
	}
}

// SetChunkScheme changes the chunk highlight color. Takes effect on the next
// render without disturbing highlight state.
func (r *Renderer) SetChunkScheme(s Scheme) { r.chunkScheme = s }

// SetWordScheme changes the word highlight color.
func (r *Renderer) SetWordScheme(s Scheme) { r.wordScheme = s }

func (r *Renderer) ChunkScheme() Scheme { return r.chunkScheme }
func (r *Renderer) WordScheme() Scheme  { return r.wordScheme }

// SetWordLevel toggles the word highlight layer mid-session.
func (r *Renderer) SetWordLevel(on bool) {
	r.wordLevel = on
	if !on {
		r.wordSpan = -1
	}
}

func (r *Renderer) WordLevel() bool { return r.wordLevel }

// ApplyChunkHighlight marks c's text region as the active chunk. Switching
// to a new element restores the previous one to its original content first.
// If the chunk's text cannot be located in the element, the whole element is
// highlighted instead.
func (r *Renderer) ApplyChunkHighlight(c chunk.Chunk) {
	elem := r.doc.Element(c.SourceRef)

	if r.active != nil && r.active != elem {
		r.active.spans = nil
	}
	r.active = elem
	r.wholeElement = false
	r.wordSpan = -1
	r.spanStart, r.spanEnd = 0, 0
	r.byteStart, r.byteEnd = 0, 0

	if elem == nil {
		return
	}

	if r.wordLevel {
		if elem.spans == nil {
			elem.spans = strings.Fields(elem.orig)
		}
		off := wordOffsetAt(elem.orig, c.StartOffset)
		if !tokensAt(elem.spans, off, c.Words) {
			alt, ok := findTokens(elem.spans, c.Words)
			if !ok {
				r.wholeElement = true
				r.spanStart, r.spanEnd = 0, len(elem.spans)
				r.wordOffset = 0
				return
			}
			off = alt
		}
		r.wordOffset = off
		r.spanStart = off
		r.spanEnd = off + len(c.Words)
		if r.spanEnd > len(elem.spans) {
			r.spanEnd = len(elem.spans)
		}
		return
	}

	start, end, ok := locate(elem.orig, c)
	if !ok {
		r.wholeElement = true
		r.byteStart, r.byteEnd = 0, len(elem.orig)
		return
	}
	r.byteStart, r.byteEnd = start, end
}

// ApplyWordHighlight moves the word-level highlight to chunk-local word
// index i. The previously highlighted word demotes back to chunk-level
// styling. No-op while word-level highlighting is disabled.
func (r *Renderer) ApplyWordHighlight(c chunk.Chunk, i int) {
	if !r.wordLevel {
		return
	}
	elem := r.doc.Element(c.SourceRef)
	if elem == nil {
		return
	}
	if r.active != elem || elem.spans == nil {
		r.ApplyChunkHighlight(c)
	}
	if r.wholeElement {
		return
	}
	idx := r.wordOffset + i
	if idx < r.spanStart || idx >= r.spanEnd {
		r.wordSpan = -1
		return
	}
	r.wordSpan = idx
}

// ClearWordHighlight removes the word-level highlight, leaving the chunk
// highlight in place.
func (r *Renderer) ClearWordHighlight() {
	r.wordSpan = -1
}

// ClearChunkHighlight removes both highlight layers but keeps the active
// element's wrapping for reuse.
func (r *Renderer) ClearChunkHighlight() {
	r.wordSpan = -1
	r.wholeElement = false
	r.spanStart, r.spanEnd = 0, 0
	r.byteStart, r.byteEnd = 0, 0
}

// ClearAll tears down all highlight state and restores every element to its
// original, unwrapped content.
func (r *Renderer) ClearAll() {
	for _, e := range r.doc.elems {
		e.spans = nil
	}
	r.active = nil
	r.ClearChunkHighlight()
}

// WordHighlighted reports the element and element-local span index carrying
// the word highlight, if any.
func (r *Renderer) WordHighlighted() (ref string, span int, ok bool) {
	if r.active == nil || r.wordSpan < 0 {
		return "", 0, false
	}
	return r.active.Ref, r.wordSpan, true
}

// ChunkHighlighted reports the element carrying the chunk highlight, if any.
func (r *Renderer) ChunkHighlighted() (ref string, ok bool) {
	if r.active == nil {
		return "", false
	}
	if r.wholeElement || r.spanEnd > r.spanStart || r.byteEnd > r.byteStart {
		return r.active.Ref, true
	}
	return "", false
}

// wordOffsetAt counts whitespace-delimited tokens preceding byte offset in
// text, translating a chunk-local word index into an element-local one.
func wordOffsetAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	return len(strings.Fields(text[:offset]))
}

func tokensAt(spans []string, off int, words []string) bool {
	if off < 0 || off+len(words) > len(spans) {
		return false
	}
	for i, w := range words {
		if spans[off+i] != w {
			return false
		}
	}
	return len(words) > 0
}

// findTokens searches for the word sequence anywhere in the span list. This
// tolerates offset drift from whitespace normalization differences.
func findTokens(spans []string, words []string) (int, bool) {
	if len(words) == 0 {
		return 0, false
	}
	for off := 0; off+len(words) <= len(spans); off++ {
		if tokensAt(spans, off, words) {
			return off, true
		}
	}
	return 0, false
}

// locate finds the chunk's byte range inside the element snapshot: first at
// the recorded offset, then by exact search, then by token-sequence match so
// collapsed whitespace runs still resolve.
func locate(text string, c chunk.Chunk) (int, int, bool) {
	if c.StartOffset >= 0 && c.EndOffset <= len(text) && c.EndOffset > c.StartOffset &&
		text[c.StartOffset:c.EndOffset] == c.Text {
		return c.StartOffset, c.EndOffset, true
	}
	if i := strings.Index(text, c.Text); i >= 0 {
		return i, i + len(c.Text), true
	}

	starts, ends := fieldOffsets(text)
	off, ok := findTokens(strings.Fields(text), c.Words)
	if !ok || off+len(c.Words) > len(starts) {
		return 0, 0, false
	}
	return starts[off], ends[off+len(c.Words)-1], true
}

// fieldOffsets returns the byte start/end of each whitespace-delimited field.
func fieldOffsets(text string) (starts, ends []int) {
	i := 0
	for i < len(text) {
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		for i < len(text) && !isSpace(text[i]) {
			i++
		}
		starts = append(starts, start)
		ends = append(ends, i)
	}
	return starts, ends
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
