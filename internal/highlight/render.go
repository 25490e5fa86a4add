package highlight

import (
	"strings"
	"unicode/utf8"
)

// Token is one display token with its highlight layers.
type Token struct {
	Text  string
	Chunk bool
	Word  bool
}

// ElementView is a host-agnostic view of one element's highlight state, used
// by the terminal and GUI frontends and by tests.
type ElementView struct {
	Ref    string
	Active bool
	Tokens []Token
}

// Snapshot returns the current highlight state of every element.
func (r *Renderer) Snapshot() []ElementView {
	views := make([]ElementView, 0, len(r.doc.elems))
	for _, e := range r.doc.elems {
		views = append(views, r.viewOf(e))
	}
	return views
}

func (r *Renderer) viewOf(e *Element) ElementView {
	v := ElementView{Ref: e.Ref, Active: e == r.active}

	if e.spans != nil {
		v.Tokens = make([]Token, len(e.spans))
		for i, s := range e.spans {
			t := Token{Text: s}
			if v.Active {
				t.Chunk = r.wholeElement || (i >= r.spanStart && i < r.spanEnd)
				t.Word = i == r.wordSpan
			}
			v.Tokens[i] = t
		}
		return v
	}

	starts, ends := fieldOffsets(e.orig)
	v.Tokens = make([]Token, len(starts))
	for i := range starts {
		t := Token{Text: e.orig[starts[i]:ends[i]]}
		if v.Active {
			t.Chunk = r.wholeElement || (starts[i] < r.byteEnd && ends[i] > r.byteStart)
		}
		v.Tokens[i] = t
	}
	return v
}

// Render lays the document out as styled terminal text wrapped to width.
// The line index of the active highlight is retained for auto-scroll.
func (r *Renderer) Render(width int) string {
	if width < 10 {
		width = 10
	}

	chunkStyle := r.chunkScheme.chunkStyle()
	wordStyle := r.wordScheme.wordStyle()

	var lines []string
	r.activeLine = 0
	wordLine, chunkLine := -1, -1

	for ei, view := range r.Snapshot() {
		if ei > 0 {
			lines = append(lines, "")
		}
		var sb strings.Builder
		lineWidth := 0
		flush := func() {
			lines = append(lines, sb.String())
			sb.Reset()
			lineWidth = 0
		}
		for _, tok := range view.Tokens {
			w := utf8.RuneCountInString(tok.Text)
			if lineWidth > 0 && lineWidth+1+w > width {
				flush()
			}
			if lineWidth > 0 {
				sb.WriteString(" ")
				lineWidth++
			}
			switch {
			case tok.Word:
				sb.WriteString(wordStyle.Render(tok.Text))
			case tok.Chunk:
				sb.WriteString(chunkStyle.Render(tok.Text))
			default:
				sb.WriteString(tok.Text)
			}
			lineWidth += w
			if tok.Word && wordLine < 0 {
				wordLine = len(lines)
			}
			if tok.Chunk && chunkLine < 0 {
				chunkLine = len(lines)
			}
		}
		if lineWidth > 0 {
			flush()
		}
	}

	switch {
	case wordLine >= 0:
		r.activeLine = wordLine
	case chunkLine >= 0:
		r.activeLine = chunkLine
	}

	return strings.Join(lines, "\n")
}

// ActiveLine returns the line of the most recent Render that carries the
// active highlight, for hosts that scroll the reading position into view.
func (r *Renderer) ActiveLine() int {
	return r.activeLine
}
