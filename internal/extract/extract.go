// Package extract pulls ordered, readable text regions out of documents.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Region is one text-bearing element of a document. Ref identifies the
// element for highlight targeting; downstream code treats it as opaque.
type Region struct {
	Ref  string
	Text string
}

// Format defines a file format reader for extracting text regions.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) ([]Region, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Regions extracts text regions from a file, using a registered format or
// the plain text fallback.
func Regions(filename string) ([]Region, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Extract(filename)
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return PlainRegions(string(data)), nil
}

// PlainRegions splits raw text into paragraph regions on blank lines.
// Whitespace-only input produces no regions.
func PlainRegions(text string) []Region {
	var regions []Region
	for _, para := range splitParagraphs(text) {
		regions = append(regions, Region{
			Ref:  fmt.Sprintf("p[%d]", len(regions)),
			Text: para,
		})
	}
	return regions
}

// splitParagraphs breaks text on blank lines, normalizing inner line breaks
// to spaces and dropping empty paragraphs.
func splitParagraphs(text string) []string {
	var paras []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			paras = append(paras, strings.Join(cur, " "))
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return paras
}

// TOC returns the file's table of contents, or nil when its format does not
// provide one.
func TOC(filename string) ([]TOCEntry, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				if p, ok := f.(TOCProvider); ok {
					return p.TOC(filename)
				}
				return nil, nil
			}
		}
	}
	return nil, nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
