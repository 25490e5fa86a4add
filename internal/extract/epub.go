package extract

import (
	"fmt"
	"io"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Extract returns one region per block element across the EPUB's spine, in
// reading order. Refs are namespaced by spine position so identical markup
// in different sections stays distinguishable.
func (f *EPUBFormat) Extract(filename string) ([]Region, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	var regions []Region

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}
		itemRegions, err := RegionsFromHTML(string(data), fmt.Sprintf("item%d/", i))
		if err != nil {
			continue
		}
		regions = append(regions, itemRegions...)
	}

	return regions, nil
}
