package timing

import "testing"

func word(i int, start, end float64) Word {
	return Word{Word: "w", StartTime: start, EndTime: end, Index: i}
}

func TestResolveExactHit(t *testing.T) {
	timings := []Word{word(0, 0, 0.5), word(1, 0.5, 0.9), word(2, 1.2, 1.5)}
	if got := Resolve(3, 0.3, timings, 1.5); got != 0 {
		t.Errorf("Resolve(0.3) = %d, want 0", got)
	}
	if got := Resolve(3, 1.3, timings, 1.5); got != 2 {
		t.Errorf("Resolve(1.3) = %d, want 2", got)
	}
}

func TestResolveGapFallsBackToElapsedWord(t *testing.T) {
	// t=1.0 lands in the gap between word 1 (ends 0.9) and word 2 (starts 1.2).
	timings := []Word{word(0, 0, 0.5), word(1, 0.5, 0.9), word(2, 1.2, 1.5)}
	if got := Resolve(3, 1.0, timings, 1.5); got != 1 {
		t.Errorf("Resolve(1.0) = %d, want 1", got)
	}
}

func TestResolveBeforeFirstWordIsNone(t *testing.T) {
	timings := []Word{word(0, 0.2, 0.5), word(1, 0.5, 0.9)}
	if got := Resolve(2, 0.1, timings, 1.0); got != None {
		t.Errorf("Resolve(0.1) = %d, want None", got)
	}
}

func TestResolveSkipWordsNeverHighlighted(t *testing.T) {
	timings := []Word{
		word(0, 0, 0.5),
		{Word: "[1]", StartTime: 0.5, EndTime: 1.0, Index: 1, Skip: true},
		word(2, 1.0, 1.5),
	}
	// t inside the skip word's interval resolves to the prior spoken word.
	if got := Resolve(3, 0.7, timings, 1.5); got != 0 {
		t.Errorf("Resolve(0.7) = %d, want 0", got)
	}
	if got := Resolve(3, 1.2, timings, 1.5); got != 2 {
		t.Errorf("Resolve(1.2) = %d, want 2", got)
	}
}

func TestResolveLeadingSkipWordIsNone(t *testing.T) {
	timings := []Word{
		{Word: "[2]", StartTime: 0, EndTime: 0.4, Index: 0, Skip: true},
		word(1, 0.4, 0.8),
	}
	if got := Resolve(2, 0.2, timings, 0.8); got != None {
		t.Errorf("Resolve(0.2) = %d, want None", got)
	}
}

func TestResolveShortTimingArrayInterpolatesTail(t *testing.T) {
	// 5 timed words covering [0,2.0) out of 10 words and 4s of audio. Past the
	// timed tail, progress maps over the remaining words.
	timings := []Word{
		word(0, 0, 0.4), word(1, 0.4, 0.8), word(2, 0.8, 1.2),
		word(3, 1.2, 1.6), word(4, 1.6, 2.0),
	}
	if got := Resolve(10, 3.0, timings, 4.0); got != 7 {
		t.Errorf("Resolve(3.0) = %d, want 7", got)
	}
	if got := Resolve(10, 3.99, timings, 4.0); got != 9 {
		t.Errorf("Resolve(3.99) = %d, want 9", got)
	}
	// Exactly at the timed tail's end, the first untimed word takes over.
	if got := Resolve(10, 2.0, timings, 4.0); got != 5 {
		t.Errorf("Resolve(2.0) = %d, want 5", got)
	}
}

func TestResolveNoTimingsFallsBackToApproximate(t *testing.T) {
	if got := Resolve(10, 2.5, nil, 5.0); got != 5 {
		t.Errorf("Resolve with nil timings = %d, want 5", got)
	}
}

func TestResolveEmptyChunk(t *testing.T) {
	if got := Resolve(0, 1.0, nil, 5.0); got != None {
		t.Errorf("Resolve(0 words) = %d, want None", got)
	}
}

func TestApproximate(t *testing.T) {
	tests := []struct {
		name      string
		wordCount int
		t         float64
		duration  float64
		want      int
	}{
		{"midpoint", 10, 2.5, 5.0, 5},
		{"start", 10, 0, 5.0, 0},
		{"past end clamps", 10, 6.0, 5.0, 9},
		{"at end clamps", 10, 5.0, 5.0, 9},
		{"negative clamps", 10, -1.0, 5.0, 0},
		{"zero duration", 10, 1.0, 0, None},
		{"no words", 0, 1.0, 5.0, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Approximate(tt.wordCount, tt.t, tt.duration); got != tt.want {
				t.Errorf("Approximate(%d, %v, %v) = %d, want %d",
					tt.wordCount, tt.t, tt.duration, got, tt.want)
			}
		})
	}
}

func TestApproximateMonotonic(t *testing.T) {
	prev := None
	for ms := 0; ms <= 5000; ms += 100 {
		got := Approximate(12, float64(ms)/1000, 5.0)
		if got < prev {
			t.Fatalf("index went backwards at t=%dms: %d -> %d", ms, prev, got)
		}
		prev = got
	}
}

func TestEstimateDistributesByCharPosition(t *testing.T) {
	words := Estimate("Hello world again", 3.0)
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	if words[0].StartTime != 0 {
		t.Errorf("first word starts at %v", words[0].StartTime)
	}
	if words[2].EndTime != 3.0 {
		t.Errorf("last word ends at %v, want 3.0", words[2].EndTime)
	}
	for i := 1; i < len(words); i++ {
		if words[i].StartTime < words[i-1].EndTime {
			t.Errorf("word %d overlaps word %d", i, i-1)
		}
		if words[i].Index != i {
			t.Errorf("word %d has index %d", i, words[i].Index)
		}
	}
}

func TestEstimateFlagsCitations(t *testing.T) {
	words := Estimate("fact [1] and more [2][3] text", 2.0)
	wantSkip := map[string]bool{"[1]": true, "[2][3]": true}
	for _, w := range words {
		if w.Skip != wantSkip[w.Word] {
			t.Errorf("word %q skip = %v, want %v", w.Word, w.Skip, wantSkip[w.Word])
		}
	}
}

func TestMarkSkips(t *testing.T) {
	words := []Word{
		{Word: "see", Index: 0},
		{Word: "[4]", Index: 1},
		{Word: "below", Index: 2},
	}
	MarkSkips(words)
	if words[0].Skip || !words[1].Skip || words[2].Skip {
		t.Errorf("skip flags = %v %v %v, want false true false",
			words[0].Skip, words[1].Skip, words[2].Skip)
	}
}

func TestEstimateEmpty(t *testing.T) {
	if got := Estimate("", 3.0); got != nil {
		t.Errorf("Estimate of empty text = %v", got)
	}
	if got := Estimate("words here", 0); got != nil {
		t.Errorf("Estimate with zero duration = %v", got)
	}
}
