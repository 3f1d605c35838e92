package manifest

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ExtractMarkdownLinks parses a Markdown document and returns every
// link destination: inline links, images, autolinks, and reference
// definitions.
func ExtractMarkdownLinks(body []byte) []string {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	urls := make([]string, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			urls = append(urls, string(node.URL(body)))
		case *gmast.Image:
			urls = append(urls, string(node.Destination))
		case *gmast.Link:
			// Reference-style links resolve to a Link node with a Destination
			urls = append(urls, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		urls = append(urls, string(ref.Destination()))
	}

	return urls
}
