package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docview/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &doctree.Document{Title: titleFromFilename(filename)}

	var current strings.Builder
	start, lineNo := 0, 0
	flush := func() {
		if current.Len() == 0 {
			return
		}
		doc.Children = append(doc.Children, &doctree.Node{
			Kind: doctree.KindParagraph,
			Line: start,
			Text: current.String(),
		})
		current.Reset()
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		} else {
			start = lineNo
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return doc, nil
}
