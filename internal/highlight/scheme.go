package highlight

import "github.com/charmbracelet/lipgloss"

// Scheme is one of the configurable highlight color schemes.
type Scheme int

const (
	Yellow Scheme = iota
	Green
	Blue
	Pink
	Orange
)

var schemeNames = [...]string{"yellow", "green", "blue", "pink", "orange"}

// chunkColors are muted backgrounds for the sentence-level highlight.
var chunkColors = [...]lipgloss.Color{
	Yellow: "#5C4D00",
	Green:  "#1F4D2E",
	Blue:   "#1E3A5F",
	Pink:   "#59293F",
	Orange: "#5C3A12",
}

// wordColors are saturated backgrounds for the spoken-word highlight,
// layered above the chunk color.
var wordColors = [...]lipgloss.Color{
	Yellow: "#FFD54F",
	Green:  "#66BB6A",
	Blue:   "#64B5F6",
	Pink:   "#F06292",
	Orange: "#FFA726",
}

func (s Scheme) String() string {
	if s >= 0 && int(s) < len(schemeNames) {
		return schemeNames[s]
	}
	return "yellow"
}

// ParseScheme maps a config value to a Scheme. Unknown names report ok=false
// and fall back to Yellow.
func ParseScheme(name string) (Scheme, bool) {
	for i, n := range schemeNames {
		if n == name {
			return Scheme(i), true
		}
	}
	return Yellow, false
}

// Next cycles to the following scheme, wrapping around.
func (s Scheme) Next() Scheme {
	return Scheme((int(s) + 1) % len(schemeNames))
}

func (s Scheme) chunkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(chunkColors[s])
}

func (s Scheme) wordStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(wordColors[s]).
		Foreground(lipgloss.Color("#000000")).
		Bold(true)
}
