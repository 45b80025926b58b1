package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func rosterTable() Table {
	return Table{
		Title:   "MAT-1 roster",
		Columns: []string{"Student", "Email"},
		Rows: [][]string{
			{"Ana, Maria", "ana@school.test"},
			{"Bruno", "bruno@school.test"},
		},
	}
}

func TestCSVExporterQuotesCells(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterTable())
	require.NoError(t, err)
	assert.Equal(t, "Student,Email\n\"Ana, Maria\",ana@school.test\nBruno,bruno@school.test\n", string(out))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	table := rosterTable()
	table.Rows = append(table.Rows, []string{"only one"})
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := RendererFor(format)
		require.NoError(t, err)
		_, err = r.Render(table)
		assert.Error(t, err, string(format))
	}
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterWritesCells(t *testing.T) {
	out, err := NewXLSXExporter().Render(rosterTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Student", "Email"},
		{"Ana, Maria", "ana@school.test"},
		{"Bruno", "bruno@school.test"},
	}, rows)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
