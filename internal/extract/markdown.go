package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Extract splits a Markdown file into regions: each heading is its own
// region and each paragraph (blank-line delimited) is one region.
func (f *MarkdownFormat) Extract(filename string) ([]Region, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	regions, _ := markdownRegions(string(data))
	return regions, nil
}

// TOC extracts the table of contents by parsing headers, pointing each
// entry at its heading region.
func (f *MarkdownFormat) TOC(filename string) ([]TOCEntry, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	_, entries := markdownRegions(string(data))
	return entries, nil
}

func markdownRegions(text string) ([]Region, []TOCEntry) {
	var regions []Region
	var entries []TOCEntry
	var cur []string

	flush := func() {
		if len(cur) > 0 {
			regions = append(regions, Region{
				Ref:  fmt.Sprintf("p[%d]", len(regions)),
				Text: strings.Join(cur, " "),
			})
			cur = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if match := headerRegex.FindStringSubmatch(line); match != nil {
			flush()
			title := strings.TrimSpace(match[2])
			entries = append(entries, TOCEntry{
				Title:       title,
				RegionIndex: len(regions),
				Level:       len(match[1]) - 1, // h1 = level 0, h2 = level 1, etc.
			})
			regions = append(regions, Region{
				Ref:  fmt.Sprintf("h[%d]", len(regions)),
				Text: title,
			})
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		cur = append(cur, trimmed)
	}
	flush()

	// Fill previews from the first region after each heading
	for i := range entries {
		next := entries[i].RegionIndex + 1
		if next < len(regions) {
			entries[i].Preview = preview(regions[next].Text)
		}
	}

	return regions, entries
}

func preview(text string) string {
	words := strings.Fields(text)
	if len(words) > 10 {
		words = words[:10]
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ") + "..."
}
