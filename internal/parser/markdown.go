package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// NewMarkdown builds the goldmark instance used to parse and render markdown
// blocks. An empty style disables syntax highlighting.
func NewMarkdown(highlightStyle string) goldmark.Markdown {
	exts := []goldmark.Extender{extension.GFM}
	if highlightStyle != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(highlightStyle),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			gmparser.WithAutoHeadingID(),
		),
	)
}

// parseMarkdown parses a run of markdown and returns one node per top-level
// block. firstLine is the document line the chunk starts on.
func parseMarkdown(md goldmark.Markdown, chunk []byte, firstLine int) []*doctree.Node {
	root := md.Parser().Parse(text.NewReader(chunk))

	var nodes []*doctree.Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		line := firstLine
		if off, ok := blockOffset(n); ok {
			line += bytes.Count(chunk[:off], []byte("\n"))
		}
		node := &doctree.Node{
			Kind:   blockKind(n),
			Line:   line,
			Block:  n,
			Source: chunk,
		}
		if h, ok := n.(*ast.Heading); ok {
			node.Level = h.Level
			node.Text = plainText(h, chunk)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func blockKind(n ast.Node) doctree.Kind {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		return doctree.KindParagraph
	case ast.KindHeading:
		return doctree.KindHeading
	case ast.KindList:
		return doctree.KindList
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		return doctree.KindFence
	case ast.KindBlockquote:
		return doctree.KindBlockquote
	case ast.KindThematicBreak:
		return doctree.KindHr
	case ast.KindHTMLBlock:
		return doctree.KindHTML
	case east.KindTable:
		return doctree.KindTable
	}
	return doctree.Kind(strings.ToLower(n.Kind().String()))
}

// blockOffset finds the byte offset of the first source line of a block,
// descending into container blocks that carry no lines of their own.
func blockOffset(n ast.Node) (int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, false
	}
	if lines := n.Lines(); lines.Len() > 0 {
		return lines.At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := blockOffset(c); ok {
			return off, true
		}
	}
	return 0, false
}

// plainText gets the text content of a goldmark node without markup.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
