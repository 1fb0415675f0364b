package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/yuin/goldmark"
)

// MarkdocParser handles markdown extended with block tags:
//
//	{% callout type="warning" %}
//	Body is ordinary markdown.
//	{% /callout %}
//
// Tag lines must stand alone. Lines inside fenced code are never tags.
type MarkdocParser struct {
	Markdown goldmark.Markdown // nil uses NewMarkdown("")
}

var defaultMarkdown = sync.OnceValue(func() goldmark.Markdown {
	return NewMarkdown("")
})

func (p *MarkdocParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	fm, body, offset, err := splitFrontmatter(src)
	if err != nil {
		return nil, &SyntaxError{File: filename, Line: 1, Msg: "invalid frontmatter", Err: err}
	}

	md := p.Markdown
	if md == nil {
		md = defaultMarkdown()
	}

	b := newTreeBuilder(md)
	var fence fenceState
	for i, line := range strings.SplitAfter(string(body), "\n") {
		lineNo := offset + i + 1
		if fence.update(line) || fence.open {
			b.add(line, lineNo)
			continue
		}
		tok, ok, err := parseTagLine(line)
		if err != nil {
			return nil, &SyntaxError{File: filename, Line: lineNo, Msg: err.Error()}
		}
		if !ok {
			b.add(line, lineNo)
			continue
		}
		b.flush()
		if err := b.tag(tok, lineNo); err != nil {
			return nil, &SyntaxError{File: filename, Line: lineNo, Msg: err.Error()}
		}
	}
	b.flush()

	if open := b.top(); open != b.root {
		return nil, &SyntaxError{File: filename, Line: open.Line, Msg: fmt.Sprintf("unclosed tag %q", open.Tag)}
	}

	doc := &doctree.Document{
		Frontmatter: fm,
		Children:    b.root.Children,
	}
	doc.Title = documentTitle(doc, filename)
	return doc, nil
}

// treeBuilder collects markdown lines into chunks and nests them under the
// currently open tag.
type treeBuilder struct {
	md    goldmark.Markdown
	root  *doctree.Node
	stack []*doctree.Node
	chunk bytes.Buffer
	start int
}

func newTreeBuilder(md goldmark.Markdown) *treeBuilder {
	root := &doctree.Node{}
	return &treeBuilder{md: md, root: root, stack: []*doctree.Node{root}}
}

func (b *treeBuilder) top() *doctree.Node { return b.stack[len(b.stack)-1] }

func (b *treeBuilder) add(line string, lineNo int) {
	if b.chunk.Len() == 0 {
		b.start = lineNo
	}
	b.chunk.WriteString(line)
}

func (b *treeBuilder) flush() {
	defer b.chunk.Reset()
	if len(bytes.TrimSpace(b.chunk.Bytes())) == 0 {
		return
	}
	// Nodes keep referencing their source after the buffer is reused.
	src := bytes.Clone(b.chunk.Bytes())
	top := b.top()
	top.Children = append(top.Children, parseMarkdown(b.md, src, b.start)...)
}

func (b *treeBuilder) tag(tok tagToken, lineNo int) error {
	if tok.closing {
		open := b.top()
		if open == b.root {
			return fmt.Errorf("closing tag %q without opening tag", tok.name)
		}
		if open.Tag != tok.name {
			return fmt.Errorf("closing tag %q does not match %q opened on line %d", tok.name, open.Tag, open.Line)
		}
		b.stack = b.stack[:len(b.stack)-1]
		return nil
	}

	node := &doctree.Node{
		Kind:       doctree.KindTag,
		Line:       lineNo,
		Tag:        tok.name,
		Attributes: tok.attrs,
	}
	parent := b.top()
	parent.Children = append(parent.Children, node)
	if !tok.selfClosing {
		b.stack = append(b.stack, node)
	}
	return nil
}

// fenceState tracks whether the scanner is inside a fenced code block.
type fenceState struct {
	open bool
	char byte
	size int
}

// update advances the state by one line and reports whether the line opened
// or closed a fence.
func (f *fenceState) update(line string) bool {
	char, size, rest := fenceMarker(line)
	if size == 0 {
		return false
	}
	if !f.open {
		if char == '`' && strings.Contains(rest, "`") {
			return false
		}
		f.open, f.char, f.size = true, char, size
		return true
	}
	if char == f.char && size >= f.size && strings.TrimSpace(rest) == "" {
		f.open = false
		return true
	}
	return false
}

func fenceMarker(line string) (byte, int, string) {
	line = strings.TrimRight(line, "\n")
	s := strings.TrimLeft(line, " ")
	if len(line)-len(s) > 3 || s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0, ""
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	if n < 3 {
		return 0, 0, ""
	}
	return s[0], n, s[n:]
}

// documentTitle prefers the frontmatter title, then the first heading,
// then the file name.
func documentTitle(doc *doctree.Document, filename string) string {
	if t, ok := doc.Frontmatter["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	var title string
	doctree.Walk(doc.Children, func(n *doctree.Node) bool {
		if n.Kind == doctree.KindHeading && n.Text != "" {
			title = n.Text
			return false
		}
		return true
	})
	if title != "" {
		return title
	}
	return titleFromFilename(filename)
}
