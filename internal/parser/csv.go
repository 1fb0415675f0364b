package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docview/internal/doctree"
)

// CSVParser handles CSV files. The whole file becomes a single table whose
// first row is the header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &SyntaxError{File: filename, Msg: "parse csv", Err: err}
	}

	doc := &doctree.Document{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	// Pad short rows so every row has the header's width.
	width := len(records[0])
	for i, row := range records {
		if len(row) < width {
			records[i] = append(row, make([]string, width-len(row))...)
		}
	}

	doc.Children = []*doctree.Node{{
		Kind: doctree.KindTable,
		Line: 1,
		Rows: records,
		Text: fmt.Sprintf("%d rows", len(records)-1),
	}}
	return doc, nil
}
