package extract

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLFormat implements Format for standalone HTML files.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

func (f *HTMLFormat) Extract(filename string) ([]Region, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return RegionsFromHTML(string(data), "")
}

// blockTags are elements treated as text-bearing regions of their own.
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "li": true, "blockquote": true, "pre": true, "dt": true,
	"dd": true, "figcaption": true, "td": true, "th": true,
}

// skipTags never contribute readable text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

// RegionsFromHTML parses markup and returns one region per block-level
// element. Nested blocks (a list item containing paragraphs) defer to their
// innermost block children. Region refs are prefix + tag + ordinal. If the
// document has no block structure at all, its full text becomes one region.
func RegionsFromHTML(markup, refPrefix string) ([]Region, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var regions []Region
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipTags[n.Data] {
				return
			}
			if blockTags[n.Data] && !containsBlock(n) {
				if text := nodeText(n); text != "" {
					regions = append(regions, Region{
						Ref:  fmt.Sprintf("%s%s[%d]", refPrefix, n.Data, len(regions)),
						Text: text,
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(regions) == 0 {
		if text := nodeText(doc); text != "" {
			regions = append(regions, Region{Ref: refPrefix + "body[0]", Text: text})
		}
	}
	return regions, nil
}

// containsBlock reports whether any descendant is a block element.
func containsBlock(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (blockTags[c.Data] || containsBlock(c)) {
			return true
		}
	}
	return false
}

// nodeText joins the trimmed text content beneath a node.
func nodeText(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if out.Len() > 0 {
					out.WriteString(" ")
				}
				out.WriteString(t)
			}
		}
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out.String()
}
