package tabular

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestExcelDecoder_Decode(t *testing.T) {
	reader := buildWorkbook(t, [][]interface{}{
		{"Nº COMPARENDO", "NOMBRE", "VALOR MULTA"},
		{"D-123", "Juan Pérez", "$ 64.000,00"},
		{"D-456", "Ana Gómez", "$ 128.000,00"},
	})

	table, err := NewExcelDecoder().Decode(context.Background(), reader)
	require.NoError(t, err)

	assert.Equal(t, []string{"Nº COMPARENDO", "NOMBRE", "VALOR MULTA"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, []string{"D-123", "Juan Pérez", "$ 64.000,00"}, table.Rows[0].Cells)
}

func TestExcelDecoder_EmptyWorkbook(t *testing.T) {
	reader := buildWorkbook(t, [][]interface{}{
		{"A", "B"},
	})

	_, err := NewExcelDecoder().Decode(context.Background(), reader)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEmptyInput))
}

func TestExcelDecoder_NotAWorkbook(t *testing.T) {
	_, err := NewExcelDecoder().Decode(context.Background(), bytes.NewReader([]byte("not a zip")))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDecode))
}

func TestNormalizeNativeCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Serial 45000 is 2023-03-15 in the 1900 date system.
		{"date serial", "45000", "15/03/2023"},
		{"serial below plausible range", "12345", "12345"},
		{"serial above plausible range", "70000", "70000"},
		{"fractional serial passes through", "45000.5", "45000.5"},
		{"zero time suffix stripped", "15/06/1999 00:00", "15/06/1999"},
		{"plain text", " D-123 ", "D-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeNativeCell(tt.input))
		})
	}
}

func TestFactory_SelectsByExtension(t *testing.T) {
	f := NewFactory()

	d, err := f.ForFilename("export.csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVDecoder{}, d)

	d, err = f.ForFilename("EXPORT.XLSX")
	require.NoError(t, err)
	assert.IsType(t, &ExcelDecoder{}, d)

	d, err = f.ForFilename("notas.txt")
	require.NoError(t, err)
	assert.IsType(t, &CSVDecoder{}, d)
}

func TestFactory_UnsupportedFormat(t *testing.T) {
	f := NewFactory()

	_, err := f.ForFilename("export.pdf")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))

	_, err = f.ForFilename("noextension")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}
