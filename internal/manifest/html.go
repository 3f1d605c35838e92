package manifest

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// ExtractHTMLLinks parses an HTML document and returns every outbound
// reference: anchors, images, scripts, stylesheets, and media sources.
// The input may be in any charset the document declares.
func ExtractHTMLLinks(r io.Reader) ([]string, error) {
	decoded, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("failed to detect HTML charset: %w", err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var urls []string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if u := elementLink(n); u != "" {
				urls = append(urls, u)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return urls, nil
}

// elementLink returns the outbound reference carried by the element, if any.
func elementLink(n *html.Node) string {
	switch n.Data {
	case "a", "link":
		return getAttr(n, "href")
	case "img", "script", "video", "audio", "source", "iframe":
		return getAttr(n, "src")
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
