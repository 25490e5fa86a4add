package extract

// TOCEntry is a single entry in a document's table of contents, pointing at
// the region where its section begins.
type TOCEntry struct {
	Title       string
	Preview     string
	RegionIndex int
	Level       int
}

// TOCProvider is an optional interface for formats that support TOC
// extraction, used to start reading from a chosen section.
type TOCProvider interface {
	TOC(filename string) ([]TOCEntry, error)
}
