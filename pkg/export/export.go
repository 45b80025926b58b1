// Package export renders tabular data into downloadable documents.
package export

import (
	"fmt"
	"strings"
)

// Format identifies a document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Table is the renderer input. Every row holds one cell per column.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func (t Table) validate(kind string) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("%s requires at least one column", kind)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%s row %d has %d cells, want %d", kind, i+1, len(row), len(t.Columns))
		}
	}
	return nil
}

// Renderer turns a Table into document bytes.
type Renderer interface {
	Render(t Table) ([]byte, error)
	ContentType() string
}

// ParseFormat normalises a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// RendererFor returns the renderer of format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatXLSX:
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
