// Package transform checks a parsed document against the tag schema
// registry and produces the tree the renderer consumes.
package transform

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/tagschema"
)

var (
	ErrUnknownTag      = errors.New("unknown tag")
	ErrChildNotAllowed = errors.New("child not allowed")
)

// Tree is a validated document ready for rendering.
type Tree struct {
	Title       string
	Frontmatter map[string]any
	Children    []*Element
}

// Element wraps one document node. Content nodes pass through with an
// empty Tag; tag nodes carry the schema's render name and their attributes
// after defaults are applied.
type Element struct {
	Node       *doctree.Node
	Tag        string
	Render     string
	Attributes map[string]any
	Children   []*Element
}

// ValidationError reports a tag that does not satisfy its schema.
type ValidationError struct {
	Tag  string
	Line int
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: tag %q: %v", e.Line, e.Tag, e.Err)
	}
	return fmt.Sprintf("tag %q: %v", e.Tag, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Transform validates every tag in doc against reg. All problems in the
// document are reported together; on error no tree is returned.
func Transform(doc *doctree.Document, reg *tagschema.Registry) (*Tree, error) {
	if doc == nil {
		return nil, errors.New("transform: nil document")
	}
	t := &transformer{reg: reg}
	children := t.nodes(doc.Children)
	if len(t.errs) > 0 {
		return nil, errors.Join(t.errs...)
	}
	return &Tree{
		Title:       doc.Title,
		Frontmatter: doc.Frontmatter,
		Children:    children,
	}, nil
}

type transformer struct {
	reg  *tagschema.Registry
	errs []error
}

func (t *transformer) nodes(nodes []*doctree.Node) []*Element {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, t.node(n))
	}
	return out
}

func (t *transformer) node(n *doctree.Node) *Element {
	if n.Kind != doctree.KindTag {
		return &Element{Node: n}
	}

	el := &Element{Node: n, Tag: n.Tag}
	schema, ok := t.reg.Lookup(n.Tag)
	if !ok {
		t.fail(n.Tag, n.Line, ErrUnknownTag)
		// Keep walking so nested problems are reported too.
		el.Children = t.nodes(n.Children)
		return el
	}

	el.Render = schema.Render
	attrs, errs := schema.ResolveAttributes(n.Attributes)
	for _, err := range errs {
		t.fail(n.Tag, n.Line, err)
	}
	el.Attributes = attrs

	for _, c := range n.Children {
		if !schema.AllowsChild(string(c.Kind)) {
			line := c.Line
			if line == 0 {
				line = n.Line
			}
			t.fail(n.Tag, line, fmt.Errorf("%w: %s", ErrChildNotAllowed, c.Kind))
		}
	}
	el.Children = t.nodes(n.Children)
	return el
}

func (t *transformer) fail(tag string, line int, err error) {
	t.errs = append(t.errs, &ValidationError{Tag: tag, Line: line, Err: err})
}
