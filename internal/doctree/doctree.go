package doctree

import "github.com/yuin/goldmark/ast"

// Kind names the content a node carries. Tag schemas list permitted child
// kinds using these names.
type Kind string

const (
	KindParagraph  Kind = "paragraph"
	KindHeading    Kind = "heading"
	KindList       Kind = "list"
	KindFence      Kind = "fence"
	KindBlockquote Kind = "blockquote"
	KindHr         Kind = "hr"
	KindTable      Kind = "table"
	KindHTML       Kind = "html"
	KindTag        Kind = "tag"
)

// Document is the root of a parsed document.
type Document struct {
	Title       string         // From frontmatter, first heading, or filename
	Frontmatter map[string]any // Nil when the document has none
	Children    []*Node        // Top-level blocks
}

// Node is a block in the document tree.
type Node struct {
	Kind Kind
	Line int // 1-based source line (0 if N/A)
	Page int // Source page for paginated formats (0 if N/A)

	// Markdown blocks. Block's segments index into Source.
	Block  ast.Node
	Source []byte

	// Text-based formats.
	Level int        // Heading level
	Text  string     // Paragraph or heading text, raw markup for KindHTML
	Rows  [][]string // KindTable; first row is the header

	// KindTag only.
	Tag        string         // Tag name as written
	Attributes map[string]any // Attributes as written
	Children   []*Node
}

// Walk visits every node depth-first, stopping early when fn returns false.
func Walk(nodes []*Node, fn func(*Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		if !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}
