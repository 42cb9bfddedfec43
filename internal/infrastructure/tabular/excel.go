package tabular

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// ExcelDecoder decodes the first worksheet of an .xlsx/.xls file into
// the same text representation the CSV decoder would have produced, so
// downstream components are format-agnostic.
type ExcelDecoder struct{}

// NewExcelDecoder creates a new Excel decoder
func NewExcelDecoder() *ExcelDecoder {
	return &ExcelDecoder{}
}

// Decode reads the first worksheet into a Table
func (d *ExcelDecoder) Decode(ctx context.Context, reader io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, apperrors.Decode(err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, apperrors.Decode(fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.Decode(err)
	}
	if len(rows) == 0 {
		return nil, apperrors.EmptyInput()
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Header: header}

	for idx := 1; idx < len(rows); idx++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cells := rows[idx]
		for i := range cells {
			cells[i] = normalizeNativeCell(cells[i])
		}
		if isEmptyRow(cells) {
			continue
		}
		table.Rows = append(table.Rows, Row{Number: idx + 1, Cells: cells})
	}

	if len(table.Rows) == 0 {
		return nil, apperrors.EmptyInput()
	}
	return table, nil
}

// SupportedExtensions returns the file extensions this decoder handles
func (d *ExcelDecoder) SupportedExtensions() []string {
	return []string{".xlsx", ".xls"}
}

// Plausible serial range for dates held in unstyled cells: 1990-01-01
// through 2078 in the 1900 date system.
const (
	minDateSerial = 32874
	maxDateSerial = 65380
)

// normalizeNativeCell converts native date/number renderings into the
// text forms the delimited-text path produces. Date cells that excelize
// surfaces as raw serial numbers become dd/mm/yyyy; everything else is
// trimmed as-is.
func normalizeNativeCell(s string) string {
	s = strings.TrimSpace(s)

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial == float64(int64(serial)) && serial >= minDateSerial && serial <= maxDateSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format("02/01/2006")
			}
		}
	}

	// Date-styled cells come back formatted like "01-02-06 15:04" only
	// when the workbook used a builtin US format; the common export
	// styles render dd/mm/yyyy already. Strip a zero time suffix.
	if t, err := time.Parse("01-02-06 15:04", s); err == nil {
		return t.Format("02/01/2006")
	}
	s = strings.TrimSuffix(s, " 00:00")
	return s
}
