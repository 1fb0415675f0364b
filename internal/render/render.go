// Package render turns a transformed document into an HTML element tree.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/dgallion1/docview/internal/transform"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Component builds the element for a tag. children are already rendered
// and detached.
type Component func(el *transform.Element, children []*html.Node) *html.Node

// Renderer renders transformed trees. It is safe for concurrent use once
// constructed.
type Renderer struct {
	md         goldmark.Markdown
	components map[string]Component
}

// New returns a renderer that uses md for markdown blocks and the built-in
// component table.
func New(md goldmark.Markdown) *Renderer {
	return &Renderer{
		md: md,
		components: map[string]Component{
			"Callout": Callout,
		},
	}
}

// Render builds the view root, an <article> element.
func (r *Renderer) Render(tree *transform.Tree) (*html.Node, error) {
	if tree == nil {
		return nil, fmt.Errorf("render: nil tree")
	}
	root := element(atom.Article)
	nodes, err := r.elements(tree.Children)
	if err != nil {
		return nil, err
	}
	appendAll(root, nodes)
	return root, nil
}

func (r *Renderer) elements(els []*transform.Element) ([]*html.Node, error) {
	var out []*html.Node
	for _, el := range els {
		nodes, err := r.element(el)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (r *Renderer) element(el *transform.Element) ([]*html.Node, error) {
	if el.Tag != "" {
		children, err := r.elements(el.Children)
		if err != nil {
			return nil, err
		}
		comp, ok := r.components[el.Render]
		if !ok {
			comp = Generic
		}
		return []*html.Node{comp(el, children)}, nil
	}

	n := el.Node
	if n.Block != nil {
		return r.markdown(n)
	}
	return []*html.Node{textBlock(n)}, nil
}

// markdown renders one goldmark block and reparses the output as a
// fragment so it can join the element tree.
func (r *Renderer) markdown(n *doctree.Node) ([]*html.Node, error) {
	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, n.Source, n.Block); err != nil {
		return nil, fmt.Errorf("render line %d: %w", n.Line, err)
	}
	nodes, err := html.ParseFragment(&buf, element(atom.Div))
	if err != nil {
		return nil, fmt.Errorf("reparse line %d: %w", n.Line, err)
	}
	return nodes, nil
}

var headings = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func textBlock(n *doctree.Node) *html.Node {
	switch n.Kind {
	case doctree.KindHeading:
		level := min(max(n.Level, 1), 6)
		return withText(element(headings[level-1]), n.Text)
	case doctree.KindTable:
		return table(n.Rows)
	}
	p := element(atom.P)
	if n.Page > 0 {
		p.Attr = append(p.Attr, attr("data-page", fmt.Sprint(n.Page)))
	}
	return withText(p, n.Text)
}

func table(rows [][]string) *html.Node {
	t := element(atom.Table)
	if len(rows) == 0 {
		return t
	}
	head := element(atom.Thead)
	tr := element(atom.Tr)
	for _, cell := range rows[0] {
		tr.AppendChild(withText(element(atom.Th), cell))
	}
	head.AppendChild(tr)
	t.AppendChild(head)

	if len(rows) > 1 {
		body := element(atom.Tbody)
		for _, row := range rows[1:] {
			tr := element(atom.Tr)
			for _, cell := range row {
				tr.AppendChild(withText(element(atom.Td), cell))
			}
			body.AppendChild(tr)
		}
		t.AppendChild(body)
	}
	return t
}

// HTML serializes a rendered tree.
func HTML(root *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func withText(n *html.Node, s string) *html.Node {
	if s != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
	return n
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}
