// Package timing maps playback time to word indices for highlight sync.
package timing

import "regexp"

// None is returned when no word should be highlighted at the queried time.
const None = -1

// Word is one word's playback-time interval within a chunk's audio. Skip
// marks tokens, such as citation markers, that never receive a highlight.
type Word struct {
	Word      string  `json:"word"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Index     int     `json:"index"`
	Skip      bool    `json:"skip"`
}

// Resolve returns the index of the word to highlight at playback time t, or
// None. With timing data it scans intervals in order: an exact hit wins, a
// gap resolves to the latest non-skip word already elapsed, and time before
// the first non-skip word resolves to None. Words past the end of a short
// timing array are mapped approximately over the remaining audio. Without
// timing data it falls back to Approximate.
func Resolve(wordCount int, t float64, timings []Word, duration float64) int {
	if wordCount <= 0 {
		return None
	}
	if len(timings) == 0 {
		return Approximate(wordCount, t, duration)
	}

	n := len(timings)
	if n > wordCount {
		n = wordCount
	}

	last := None
	for i := 0; i < n; i++ {
		w := timings[i]
		if w.Skip {
			continue
		}
		if t >= w.StartTime && t < w.EndTime {
			return i
		}
		if w.EndTime <= t {
			last = i
		}
	}

	// Words past the timed tail: from the last timed word's end onward,
	// including t exactly at the boundary, progress maps linearly over the
	// remaining words and audio.
	if n < wordCount && duration > 0 {
		tail := timings[n-1].EndTime
		if t >= tail && duration > tail {
			frac := (t - tail) / (duration - tail)
			idx := n + int(frac*float64(wordCount-n))
			if idx >= wordCount {
				idx = wordCount - 1
			}
			return idx
		}
	}

	return last
}

// Approximate maps playback progress linearly onto the word list. It is the
// fallback when the backend supplies no per-word timing: coarse, but
// monotonically non-decreasing in t.
func Approximate(wordCount int, t, duration float64) int {
	if wordCount <= 0 || duration <= 0 {
		return None
	}
	idx := int(t / duration * float64(wordCount))
	if idx < 0 {
		idx = 0
	}
	if idx >= wordCount {
		idx = wordCount - 1
	}
	return idx
}

// citationPattern matches markers like [1] or [2][3] that are spoken by the
// backend but should never be highlighted.
var citationPattern = regexp.MustCompile(`^\[\d+\](\[\d+\])*$`)

// MarkSkips flags citation markers in a timing list that arrived without
// skip flags set.
func MarkSkips(words []Word) {
	for i := range words {
		if citationPattern.MatchString(words[i].Word) {
			words[i].Skip = true
		}
	}
}

// Estimate synthesizes per-word timing for a chunk from its audio duration
// alone, distributing time by character position within the text. Citation
// markers are flagged Skip.
func Estimate(text string, duration float64) []Word {
	total := len(text)
	if total == 0 || duration <= 0 {
		return nil
	}

	var words []Word
	i := 0
	for i < total {
		for i < total && isSpace(text[i]) {
			i++
		}
		if i >= total {
			break
		}
		start := i
		for i < total && !isSpace(text[i]) {
			i++
		}
		w := text[start:i]
		words = append(words, Word{
			Word:      w,
			StartTime: float64(start) / float64(total) * duration,
			EndTime:   float64(i) / float64(total) * duration,
			Index:     len(words),
			Skip:      citationPattern.MatchString(w),
		})
	}
	return words
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
