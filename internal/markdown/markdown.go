package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ParseBody parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func ParseBody(body []byte, _ Options) (gmast.Node, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))
	return root, nil
}

// ExtractLinks parses a Markdown body and extracts link-like constructs.
//
// This is an analysis API; it does not attempt to re-render Markdown.
func ExtractLinks(body []byte, _ Options) ([]Link, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination), Text: plainText(node, body)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}

	return links, nil
}

// FirstHeading returns the first heading of the document.
func FirstHeading(body []byte) (Heading, bool) {
	root, _ := ParseBody(body, Options{})
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*gmast.Heading); ok {
			return Heading{Level: h.Level, Text: plainText(h, body)}, true
		}
	}
	return Heading{}, false
}

// StartsWithH1 reports whether the first block of the document is a level 1 heading.
func StartsWithH1(body []byte) bool {
	root, _ := ParseBody(body, Options{})
	first := root.FirstChild()
	h, ok := first.(*gmast.Heading)
	return ok && h.Level == 1
}

// FirstParagraph returns the plain text of the first top-level paragraph,
// with soft line breaks collapsed to spaces. Headings, lists and code are skipped.
func FirstParagraph(body []byte) string {
	root, _ := ParseBody(body, Options{})
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if p, ok := n.(*gmast.Paragraph); ok {
			if t := strings.TrimSpace(plainText(p, body)); t != "" {
				return t
			}
		}
	}
	return ""
}

// plainText concatenates the text segments below n.
func plainText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		case *gmast.AutoLink:
			sb.Write(t.Label(source))
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}
