package tasks

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// htmlLink is a single href/src reference pulled out of a parsed HTML
// document, tagged with the element it came from.
type htmlLink struct {
	URL string
	Tag string
}

// extractHTMLLinks walks a parsed document looking at the same reference
// attributes as a real link checker would: href on a/link, src on
// img/script/iframe/video/audio/source.
func extractHTMLLinks(r io.Reader) ([]htmlLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []htmlLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := htmlAttr(n, "href"); href != "" {
					links = append(links, htmlLink{URL: href, Tag: n.Data})
				}
			case "img", "script", "iframe", "video", "audio", "source":
				if src := htmlAttr(n, "src"); src != "" {
					links = append(links, htmlLink{URL: src, Tag: n.Data})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isExternalLink classifies a link as external to the tree being checked:
// absolute URLs, scheme-relative URLs, and non-filesystem protocols are
// never resolved against the output tree.
func isExternalLink(link string) bool {
	if strings.HasPrefix(link, "mailto:") || strings.HasPrefix(link, "tel:") ||
		strings.HasPrefix(link, "javascript:") || strings.HasPrefix(link, "data:") ||
		strings.HasPrefix(link, "#") {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	return u.IsAbs() || strings.HasPrefix(link, "//")
}

// resolveLink maps a link found in sourceFile to the filesystem path it
// would resolve to, for existence checking.
func resolveLink(sourceFile, link string) string {
	link = strings.SplitN(link, "#", 2)[0]
	link = strings.SplitN(link, "?", 2)[0]
	if link == "" {
		return sourceFile
	}
	if strings.HasPrefix(link, "/") {
		return link
	}
	return filepath.Join(filepath.Dir(sourceFile), link)
}
