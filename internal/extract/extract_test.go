package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlainRegions(t *testing.T) {
	text := "First paragraph\nwith a wrapped line.\n\n\nSecond paragraph.\n"
	regions := PlainRegions(text)
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	if regions[0].Text != "First paragraph with a wrapped line." {
		t.Errorf("region 0 = %q", regions[0].Text)
	}
	if regions[0].Ref != "p[0]" || regions[1].Ref != "p[1]" {
		t.Errorf("refs = %q, %q", regions[0].Ref, regions[1].Ref)
	}
}

func TestPlainRegionsEmpty(t *testing.T) {
	if got := PlainRegions("  \n\n \t\n"); got != nil {
		t.Errorf("whitespace input produced regions: %v", got)
	}
}

func TestRegionsFallsBackToPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("Hello.\n\nGoodbye."), 0644); err != nil {
		t.Fatal(err)
	}
	regions, err := Regions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 2 || regions[1].Text != "Goodbye." {
		t.Errorf("regions = %v", regions)
	}
}

func TestRegionsMissingFile(t *testing.T) {
	if _, err := Regions(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarkdownRegions(t *testing.T) {
	text := "# Title\n\nIntro paragraph here.\n\n## Section One\n\nBody of the\nsection.\n"
	regions, entries := markdownRegions(text)

	wantTexts := []string{"Title", "Intro paragraph here.", "Section One", "Body of the section."}
	if len(regions) != len(wantTexts) {
		t.Fatalf("got %d regions, want %d: %v", len(regions), len(wantTexts), regions)
	}
	for i, want := range wantTexts {
		if regions[i].Text != want {
			t.Errorf("region %d = %q, want %q", i, regions[i].Text, want)
		}
	}
	if regions[0].Ref != "h[0]" || regions[1].Ref != "p[1]" {
		t.Errorf("refs = %q, %q", regions[0].Ref, regions[1].Ref)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d toc entries, want 2", len(entries))
	}
	if entries[0].Title != "Title" || entries[0].Level != 0 || entries[0].RegionIndex != 0 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Title != "Section One" || entries[1].Level != 1 || entries[1].RegionIndex != 2 {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if entries[0].Preview != "Intro paragraph here...." {
		t.Errorf("preview = %q", entries[0].Preview)
	}
}

func TestMarkdownFormatExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("# A\n\nText.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	regions, err := Regions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 2 || regions[0].Text != "A" || regions[1].Text != "Text." {
		t.Errorf("regions = %v", regions)
	}
}

func TestTOCDispatch(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(md, []byte("# One\n\nText.\n\n## Two\n"), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := TOC(md)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Title != "One" || entries[1].Title != "Two" {
		t.Errorf("entries = %+v", entries)
	}

	// Formats without TOC support report none.
	txt := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(txt, []byte("plain"), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err = TOC(txt)
	if err != nil || entries != nil {
		t.Errorf("TOC(txt) = %v, %v; want nil, nil", entries, err)
	}
}

func TestRegionsFromHTML(t *testing.T) {
	markup := `<html><head><style>p{color:red}</style></head><body>
		<h1>Heading</h1>
		<p>First <em>styled</em> paragraph.</p>
		<ul><li>Item one</li><li>Item two</li></ul>
		<script>ignored()</script>
	</body></html>`

	regions, err := RegionsFromHTML(markup, "ch1/")
	if err != nil {
		t.Fatal(err)
	}
	wantTexts := []string{"Heading", "First styled paragraph.", "Item one", "Item two"}
	if len(regions) != len(wantTexts) {
		t.Fatalf("got %d regions, want %d: %v", len(regions), len(wantTexts), regions)
	}
	for i, want := range wantTexts {
		if regions[i].Text != want {
			t.Errorf("region %d = %q, want %q", i, regions[i].Text, want)
		}
	}
	if regions[0].Ref != "ch1/h1[0]" {
		t.Errorf("ref = %q, want ch1/h1[0]", regions[0].Ref)
	}
}

func TestRegionsFromHTMLNestedBlocks(t *testing.T) {
	markup := `<body><li><p>Inner one.</p><p>Inner two.</p></li></body>`
	regions, err := RegionsFromHTML(markup, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 2 || regions[0].Text != "Inner one." || regions[1].Text != "Inner two." {
		t.Errorf("regions = %v", regions)
	}
}

func TestRegionsFromHTMLNoBlocks(t *testing.T) {
	regions, err := RegionsFromHTML("<body>Just loose text.</body>", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(regions) != 1 || regions[0].Text != "Just loose text." || regions[0].Ref != "body[0]" {
		t.Errorf("regions = %v", regions)
	}
}
