package parser

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
	"github.com/yuin/goldmark"
)

// Parser converts raw document bytes into a doctree.Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options configures the parsers handed out by ForFile.
type Options struct {
	Markdown             goldmark.Markdown
	PDFFallbackPdftotext bool
}

// ForFile returns the parser for a document name. Markup is the default:
// names without a recognized extension are parsed as Markdoc.
func (o Options) ForFile(filename string) Parser {
	switch strings.ToLower(path.Ext(filename)) {
	case ".txt":
		return &TextParser{}
	case ".csv":
		return &CSVParser{}
	case ".html", ".htm":
		return &HTMLParser{}
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext}
	case ".docx":
		return &DOCXParser{}
	default:
		return &MarkdocParser{Markdown: o.Markdown}
	}
}

// SyntaxError reports malformed document markup.
type SyntaxError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
	}
	return fmt.Sprintf("%s: %s", e.File, msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// titleFromFilename strips directories and the extension.
func titleFromFilename(filename string) string {
	base := path.Base(filename)
	return strings.TrimSuffix(base, path.Ext(base))
}
