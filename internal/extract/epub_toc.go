package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// NCX XML structures for parsing toc.ncx
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// TOC extracts the table of contents from an EPUB file, mapping each entry
// onto the index of the first region of its spine section.
func (f *EPUBFormat) TOC(filename string) ([]TOCEntry, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]

	ncxData, err := findAndReadNCX(filename, book)
	if err != nil {
		return nil, err
	}

	var toc ncx
	if err := xml.Unmarshal(ncxData, &toc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	spineMap := buildSpineRegionMap(filename, book)
	entries := flattenNavPoints(toc.NavMap.NavPoints, spineMap, 0)

	return entries, nil
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}

	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}

type spineInfo struct {
	regionIndex int
	preview     string
}

// buildSpineRegionMap walks the spine counting regions per section so NCX
// hrefs can be resolved to region indices.
func buildSpineRegionMap(filename string, book *epub.Rootfile) map[string]spineInfo {
	m := make(map[string]spineInfo)
	regionCount := 0

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

		regions, err := RegionsFromHTML(string(data), fmt.Sprintf("item%d/", i))
		if err != nil {
			continue
		}

		p := ""
		if len(regions) > 0 {
			p = preview(regions[0].Text)
		}

		if ref.Item.HREF != "" {
			m[ref.Item.HREF] = spineInfo{regionIndex: regionCount, preview: p}
			m[path.Base(ref.Item.HREF)] = spineInfo{regionIndex: regionCount, preview: p}
		}

		regionCount += len(regions)
	}

	return m
}

func flattenNavPoints(points []navPoint, spineMap map[string]spineInfo, level int) []TOCEntry {
	var entries []TOCEntry

	for _, np := range points {
		href := np.Content.Src
		baseHref := href
		if idx := strings.Index(href, "#"); idx != -1 {
			baseHref = href[:idx]
		}

		regionIndex := 0
		p := ""
		if info, ok := spineMap[baseHref]; ok {
			regionIndex = info.regionIndex
			p = info.preview
		} else if info, ok := spineMap[path.Base(baseHref)]; ok {
			regionIndex = info.regionIndex
			p = info.preview
		}

		entries = append(entries, TOCEntry{
			Title:       strings.TrimSpace(np.Label.Text),
			Preview:     p,
			RegionIndex: regionIndex,
			Level:       level,
		})
		if len(np.Children) > 0 {
			entries = append(entries, flattenNavPoints(np.Children, spineMap, level+1)...)
		}
	}

	return entries
}
