package tabular

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// DefaultSeparator is the reserved field separator of the external
// system's exports. A semicolon keeps comma-decimal currency values
// ("64.000,00") from being read as field boundaries.
const DefaultSeparator = ';'

// CSVDecoder decodes semicolon-separated text exports
type CSVDecoder struct {
	separator rune
}

// NewCSVDecoder creates a decoder using the default separator
func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{separator: DefaultSeparator}
}

// NewCSVDecoderWithSeparator creates a decoder with a custom separator
func NewCSVDecoderWithSeparator(sep rune) *CSVDecoder {
	return &CSVDecoder{separator: sep}
}

// Decode reads the whole input into a Table. Cells wrapped in a single
// leading/trailing quote character (a legacy spreadsheet export
// artifact) are unwrapped.
func (d *CSVDecoder) Decode(ctx context.Context, reader io.Reader) (*Table, error) {
	r := csv.NewReader(reader)
	r.Comma = d.separator
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, apperrors.EmptyInput()
	}
	if err != nil {
		return nil, apperrors.Decode(err)
	}
	for i := range header {
		header[i] = unwrapCell(header[i])
	}

	table := &Table{Header: header}
	line := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.Decode(err)
		}

		for i := range cells {
			cells[i] = unwrapCell(cells[i])
		}
		if isEmptyRow(cells) {
			continue
		}
		table.Rows = append(table.Rows, Row{Number: line, Cells: cells})
	}

	if len(table.Rows) == 0 {
		return nil, apperrors.EmptyInput()
	}
	return table, nil
}

// SupportedExtensions returns the file extensions this decoder handles
func (d *CSVDecoder) SupportedExtensions() []string {
	return []string{".csv", ".txt"}
}

// unwrapCell trims whitespace and strips the legacy single-quote cell
// wrapping ('value' -> value). A lone quote on either side is stripped
// too, since the legacy exporter prefixed some cells to force text.
func unwrapCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimPrefix(s, "'")
	return strings.TrimSpace(s)
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
