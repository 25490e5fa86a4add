package highlight

import (
	"testing"

	"github.com/metcalfc/aloud/internal/chunk"
)

func testDoc(refText ...string) *Document {
	doc := NewDocument()
	for i := 0; i+1 < len(refText); i += 2 {
		doc.AddElement(refText[i], refText[i+1])
	}
	return doc
}

func wordTokens(v ElementView) []int {
	var idx []int
	for i, tok := range v.Tokens {
		if tok.Word {
			idx = append(idx, i)
		}
	}
	return idx
}

func chunkTokens(v ElementView) []int {
	var idx []int
	for i, tok := range v.Tokens {
		if tok.Chunk {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestChunkHighlightMarksChunkTokens(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[0])

	views := r.Snapshot()
	if !views[0].Active {
		t.Fatal("element not active")
	}
	got := chunkTokens(views[0])
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("chunk tokens = %v, want [0 1]", got)
	}
}

func TestWordHighlightSingleToken(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[0])
	r.ApplyWordHighlight(chunks[0], 0)
	r.ApplyWordHighlight(chunks[0], 1)

	got := wordTokens(r.Snapshot()[0])
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("word tokens = %v, want [1]", got)
	}
	ref, span, ok := r.WordHighlighted()
	if !ok || ref != "p[0]" || span != 1 {
		t.Errorf("WordHighlighted() = %q, %d, %v", ref, span, ok)
	}
}

func TestWordHighlightSecondChunkOffset(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[1])
	// word 0 of "This is a test." is element token 2
	r.ApplyWordHighlight(chunks[1], 0)

	got := wordTokens(r.Snapshot()[0])
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("word tokens = %v, want [2]", got)
	}
}

func TestWordHighlightOutOfRangeClears(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[0])
	r.ApplyWordHighlight(chunks[0], 0)
	r.ApplyWordHighlight(chunks[0], 99)

	if _, _, ok := r.WordHighlighted(); ok {
		t.Error("out-of-range word index left a highlight behind")
	}
}

func TestClearWordKeepsChunkHighlight(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[0])
	r.ApplyWordHighlight(chunks[0], 1)
	r.ClearWordHighlight()

	if _, _, ok := r.WordHighlighted(); ok {
		t.Error("word highlight survived ClearWordHighlight")
	}
	if _, ok := r.ChunkHighlighted(); !ok {
		t.Error("chunk highlight lost by ClearWordHighlight")
	}
}

func TestClearAllRestoresContent(t *testing.T) {
	text := "Hello   world. \n Oddly  spaced."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, true)
	chunks := chunk.SplitRegion("p[0]", text, 16)

	r.ApplyChunkHighlight(chunks[0])
	r.ApplyWordHighlight(chunks[0], 1)
	elem := doc.Element("p[0]")
	if !elem.Wrapped() {
		t.Fatal("element not wrapped after word highlight")
	}

	r.ClearAll()

	if elem.Wrapped() {
		t.Error("element still wrapped after ClearAll")
	}
	if elem.Content() != text {
		t.Errorf("content = %q, want original %q", elem.Content(), text)
	}
	if _, ok := r.ChunkHighlighted(); ok {
		t.Error("chunk highlight survived ClearAll")
	}
}

func TestUnlocatableChunkFallsBackToWholeElement(t *testing.T) {
	doc := testDoc("p[0]", "completely different words here")
	r := NewRenderer(doc, Yellow, Yellow, true)
	c := chunk.Chunk{Text: "missing text", Words: []string{"missing", "text"}, SourceRef: "p[0]"}

	r.ApplyChunkHighlight(c)

	view := r.Snapshot()[0]
	for i, tok := range view.Tokens {
		if !tok.Chunk {
			t.Errorf("token %d not chunk-highlighted in whole-element fallback", i)
		}
	}
	r.ApplyWordHighlight(c, 0)
	if _, _, ok := r.WordHighlighted(); ok {
		t.Error("word highlight applied during whole-element fallback")
	}
}

func TestSwitchingElementsRestoresPrevious(t *testing.T) {
	doc := testDoc("p[0]", "First paragraph here.", "p[1]", "Second paragraph here.")
	r := NewRenderer(doc, Yellow, Yellow, true)
	c0 := chunk.SplitRegion("p[0]", "First paragraph here.", 200)[0]
	c1 := chunk.SplitRegion("p[1]", "Second paragraph here.", 200)[0]

	r.ApplyChunkHighlight(c0)
	r.ApplyWordHighlight(c0, 0)
	r.ApplyChunkHighlight(c1)

	if doc.Element("p[0]").Wrapped() {
		t.Error("previous element left wrapped after switch")
	}
	views := r.Snapshot()
	if views[0].Active || !views[1].Active {
		t.Errorf("active flags = %v, %v; want false, true", views[0].Active, views[1].Active)
	}
	if got := chunkTokens(views[0]); got != nil {
		t.Errorf("stale chunk tokens on previous element: %v", got)
	}
}

func TestChunkHighlightWithoutWordLevel(t *testing.T) {
	text := "Hello world. This is a test."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, false)
	chunks := chunk.SplitRegion("p[0]", text, 15)

	r.ApplyChunkHighlight(chunks[1])

	elem := doc.Element("p[0]")
	if elem.Wrapped() {
		t.Error("element wrapped despite word level off")
	}
	got := chunkTokens(r.Snapshot()[0])
	want := []int{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("chunk tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk tokens = %v, want %v", got, want)
		}
	}
	r.ApplyWordHighlight(chunks[1], 0)
	if _, _, ok := r.WordHighlighted(); ok {
		t.Error("word highlight applied with word level off")
	}
}

func TestChunkLocatedByOffsetDespiteDuplicateText(t *testing.T) {
	// Identical sentences: the recorded offset must pick the second one.
	text := "Same words. Same words."
	doc := testDoc("p[0]", text)
	r := NewRenderer(doc, Yellow, Yellow, false)
	c := chunk.Chunk{
		Text: "Same words.", Words: []string{"Same", "words."},
		StartOffset: 12, EndOffset: 23, SourceRef: "p[0]",
	}

	r.ApplyChunkHighlight(c)

	got := chunkTokens(r.Snapshot()[0])
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("chunk tokens = %v, want [2 3]", got)
	}
}

func TestParseScheme(t *testing.T) {
	if s, ok := ParseScheme("green"); !ok || s != Green {
		t.Errorf("ParseScheme(green) = %v, %v", s, ok)
	}
	if s, ok := ParseScheme("mauve"); ok || s != Yellow {
		t.Errorf("ParseScheme(mauve) = %v, %v, want Yellow fallback", s, ok)
	}
}

func TestSchemeNextWraps(t *testing.T) {
	s := Yellow
	for i := 0; i < len(schemeNames); i++ {
		s = s.Next()
	}
	if s != Yellow {
		t.Errorf("cycling %d schemes ended at %v, want Yellow", len(schemeNames), s)
	}
}
