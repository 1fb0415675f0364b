package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/docview/internal/doctree"
)

func TestForFile(t *testing.T) {
	opts := Options{PDFFallbackPdftotext: true}
	tests := []struct {
		filename string
		want     Parser
	}{
		{"index.md", &MarkdocParser{}},
		{"guide.mdoc", &MarkdocParser{}},
		{"README", &MarkdocParser{}},
		{"notes.txt", &TextParser{}},
		{"data.CSV", &CSVParser{}},
		{"page.htm", &HTMLParser{}},
		{"page.html", &HTMLParser{}},
		{"paper.pdf", &PDFParser{FallbackPdftotext: true}},
		{"report.docx", &DOCXParser{}},
	}
	for _, tt := range tests {
		got := opts.ForFile(tt.filename)
		if reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
			t.Errorf("%s: expected %T, got %T", tt.filename, tt.want, got)
		}
	}
	if pdf := opts.ForFile("x.pdf").(*PDFParser); !pdf.FallbackPdftotext {
		t.Error("expected pdftotext fallback to be passed through")
	}
}

func TestCSVParser_SingleTable(t *testing.T) {
	input := "name,age\nalice,30\nbob\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "people" {
		t.Errorf("expected title %q, got %q", "people", doc.Title)
	}
	if len(doc.Children) != 1 || doc.Children[0].Kind != doctree.KindTable {
		t.Fatalf("expected a single table node, got %d nodes", len(doc.Children))
	}
	want := [][]string{{"name", "age"}, {"alice", "30"}, {"bob", ""}}
	if !reflect.DeepEqual(doc.Children[0].Rows, want) {
		t.Errorf("expected rows %v, got %v", want, doc.Children[0].Rows)
	}
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("expected 0 children, got %d", len(doc.Children))
	}
}

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head>
<body><nav><p>menu</p></nav>
<h1>Intro</h1><p>Hello   <b>there</b>.</p>
<script>alert(1)</script>
<ul><li>one</li></ul></body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", doc.Title)
	}

	want := []struct {
		kind doctree.Kind
		text string
	}{
		{doctree.KindHeading, "Intro"},
		{doctree.KindParagraph, "Hello there."},
		{doctree.KindParagraph, "one"},
	}
	if len(doc.Children) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(doc.Children))
	}
	for i, w := range want {
		n := doc.Children[i]
		if n.Kind != w.kind || n.Text != w.text {
			t.Errorf("node[%d]: expected %s %q, got %s %q", i, w.kind, w.text, n.Kind, n.Text)
		}
	}
	if doc.Children[0].Level != 1 {
		t.Errorf("expected heading level 1, got %d", doc.Children[0].Level)
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("one\r\ntwo\n\n\n  \n\nthree  \n")
	want := []string{"one\ntwo", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
