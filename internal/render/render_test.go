package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/docview/internal/parser"
	"github.com/dgallion1/docview/internal/tagschema"
	"github.com/dgallion1/docview/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, p parser.Parser, reg *tagschema.Registry, src, name string) string {
	t.Helper()
	doc, err := p.Parse(strings.NewReader(src), name)
	require.NoError(t, err)
	tree, err := transform.Transform(doc, reg)
	require.NoError(t, err)

	md := parser.NewMarkdown("")
	root, err := New(md).Render(tree)
	require.NoError(t, err)
	out, err := HTML(root)
	require.NoError(t, err)
	return out
}

func TestRender_MarkdownAndCallout(t *testing.T) {
	src := "# Guide\n\n{% callout type=\"warning\" %}\nBe **careful**.\n{% /callout %}\n"
	out := renderString(t, &parser.MarkdocParser{}, tagschema.Default(), src, "guide.md")

	assert.True(t, strings.HasPrefix(out, "<article>"), out)
	assert.True(t, strings.HasSuffix(out, "</article>"), out)
	assert.Contains(t, out, `<h1 id="guide">Guide</h1>`)
	assert.Contains(t, out,
		`<div class="callout callout-warning" data-component="Callout" data-type="warning" role="note"><p>Be <strong>careful</strong>.</p>`)
}

func TestRender_CalloutDefaultAndTitle(t *testing.T) {
	src := "{% callout title=\"Heads up\" %}\nText.\n{% /callout %}\n"
	out := renderString(t, &parser.MarkdocParser{}, tagschema.Default(), src, "a.md")
	assert.Contains(t, out, `class="callout callout-note"`)
	assert.Contains(t, out, `<div class="callout-title">Heads up</div>`)
}

func TestRender_GenericComponent(t *testing.T) {
	schemas := tagschema.Builtin()
	schemas["badge"] = tagschema.Schema{
		Render: "Badge",
		Attributes: map[string]tagschema.Attribute{
			"color": {Type: tagschema.TypeString, Default: "blue"},
		},
	}
	reg, err := tagschema.NewRegistry(schemas)
	require.NoError(t, err)

	out := renderString(t, &parser.MarkdocParser{}, reg, "{% badge count=3 live=true skip=null /%}\n", "b.md")
	assert.Equal(t, `<article><div data-component="Badge" data-color="blue" data-count="3" data-live="true"></div></article>`, out)
}

func TestRender_EscapesText(t *testing.T) {
	out := renderString(t, &parser.TextParser{}, tagschema.Default(), "<script>alert(1)</script>", "x.txt")
	assert.Equal(t, "<article><p>&lt;script&gt;alert(1)&lt;/script&gt;</p></article>", out)
}

func TestRender_CSVTable(t *testing.T) {
	out := renderString(t, &parser.CSVParser{}, tagschema.Default(), "a,b\n1,2\n", "t.csv")
	assert.Equal(t,
		"<article><table><thead><tr><th>a</th><th>b</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table></article>",
		out)
}

func TestRender_Deterministic(t *testing.T) {
	src := "# A\n\n- x\n- y\n\n{% callout type=\"check\" %}\nok\n{% /callout %}\n\n```go\nfunc main() {}\n```\n"
	first := renderString(t, &parser.MarkdocParser{}, tagschema.Default(), src, "d.md")
	for range 3 {
		assert.Equal(t, first, renderString(t, &parser.MarkdocParser{}, tagschema.Default(), src, "d.md"))
	}
}

func TestRender_Highlighting(t *testing.T) {
	md := parser.NewMarkdown("github")
	doc, err := (&parser.MarkdocParser{Markdown: md}).Parse(strings.NewReader("```go\nx := 1\n```\n"), "h.md")
	require.NoError(t, err)
	tree, err := transform.Transform(doc, tagschema.Default())
	require.NoError(t, err)
	root, err := New(md).Render(tree)
	require.NoError(t, err)
	out, err := HTML(root)
	require.NoError(t, err)
	assert.Contains(t, out, "<pre")
	assert.Contains(t, out, "style=")
}
