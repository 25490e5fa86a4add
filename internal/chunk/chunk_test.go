package chunk

import (
	"reflect"
	"strings"
	"testing"
)

func texts(chunks []Chunk) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

func TestSplitAtSentenceBoundaries(t *testing.T) {
	got := Split("Hello world. This is a test.", 15)
	want := []string{"Hello world.", "This is a test."}
	if !reflect.DeepEqual(texts(got), want) {
		t.Errorf("Split() = %v, want %v", texts(got), want)
	}
}

func TestSplitPacksSentencesUpToBudget(t *testing.T) {
	text := "One. Two. Three. Four five six seven eight nine ten eleven twelve."
	got := Split(text, 20)
	want := []string{"One. Two. Three.", "Four five six seven eight nine ten eleven twelve."}
	if !reflect.DeepEqual(texts(got), want) {
		t.Errorf("Split() = %v, want %v", texts(got), want)
	}
}

func TestSplitUnderBudgetIsSingleChunk(t *testing.T) {
	got := Split("Short text. Two sentences.", 200)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Text != "Short text. Two sentences." {
		t.Errorf("chunk text = %q", got[0].Text)
	}
	if got[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", got[0].Index)
	}
}

func TestSplitOversizedSentenceEmittedWhole(t *testing.T) {
	text := "a very long sentence with no terminal punctuation at all that keeps going"
	got := Split(text, 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 oversized chunk, got %d: %v", len(got), texts(got))
	}
	if got[0].Text != text {
		t.Errorf("oversized sentence was cut: %q", got[0].Text)
	}
}

func TestSplitOffsetsIndexSource(t *testing.T) {
	text := "  First sentence here. \n Second sentence follows. Third one too. "
	for _, c := range Split(text, 25) {
		if text[c.StartOffset:c.EndOffset] != c.Text {
			t.Errorf("offset mismatch: text[%d:%d] = %q, chunk = %q",
				c.StartOffset, c.EndOffset, text[c.StartOffset:c.EndOffset], c.Text)
		}
	}
}

func TestSplitCoversAllWords(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon! Zeta eta theta? Iota kappa."
	var joined []string
	for _, c := range Split(text, 20) {
		joined = append(joined, c.Words...)
	}
	if want := strings.Fields(text); !reflect.DeepEqual(joined, want) {
		t.Errorf("words = %v, want %v", joined, want)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := "Some text. More text here. And a final sentence to round it out."
	a := Split(text, 30)
	b := Split(text, 30)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input produced different chunks")
	}
}

func TestSplitEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		if got := Split(text, 100); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplitZeroBudgetUsesDefault(t *testing.T) {
	got := Split("Hello there.", 0)
	if len(got) != 1 || got[0].Text != "Hello there." {
		t.Errorf("Split with zero budget = %v", texts(got))
	}
}

func TestSplitRegionStampsRef(t *testing.T) {
	got := SplitRegion("p[3]", "One sentence. Another sentence.", 15)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	for _, c := range got {
		if c.SourceRef != "p[3]" {
			t.Errorf("SourceRef = %q, want p[3]", c.SourceRef)
		}
	}
}
