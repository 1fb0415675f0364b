package render

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/docview/internal/transform"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Callout renders a boxed note. The type attribute selects the variant.
func Callout(el *transform.Element, children []*html.Node) *html.Node {
	typ, _ := el.Attributes["type"].(string)
	div := element(atom.Div,
		attr("class", "callout callout-"+typ),
		attr("data-component", el.Render),
		attr("data-type", typ),
		attr("role", "note"),
	)
	if title, ok := el.Attributes["title"].(string); ok && title != "" {
		div.AppendChild(withText(element(atom.Div, attr("class", "callout-title")), title))
	}
	appendAll(div, children)
	return div
}

// Generic renders a tag with no dedicated component as a div carrying its
// render name and attributes as data-* attributes in name order.
func Generic(el *transform.Element, children []*html.Node) *html.Node {
	div := element(atom.Div, attr("data-component", el.Render))
	names := make([]string, 0, len(el.Attributes))
	for k := range el.Attributes {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		v, ok := formatValue(el.Attributes[k])
		if !ok {
			continue
		}
		div.Attr = append(div.Attr, attr("data-"+strings.ToLower(k), v))
	}
	appendAll(div, children)
	return div
}

func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	}
	return "", false
}
