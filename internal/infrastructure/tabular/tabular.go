// Package tabular turns uploaded delimited-text or spreadsheet files
// into an ordered sequence of raw text rows. It is a pure transform:
// downstream components never see which physical format the file had.
package tabular

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// Row is one decoded data line. Number is the 1-based position in the
// file counting the header as line 1, so the first data row is 2; it is
// carried through for error reporting.
type Row struct {
	Number int
	Cells  []string
}

// Table is the decoded file: the raw header plus all data rows in file
// order.
type Table struct {
	Header []string
	Rows   []Row
}

// Cell returns the row's cell at the given column index, or "" when the
// row is shorter than the header.
func (r Row) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}

// Decoder is the interface all format decoders implement
type Decoder interface {
	// Decode reads the whole input and returns the decoded table. The
	// first row is always treated as a header.
	Decode(ctx context.Context, reader io.Reader) (*Table, error)

	// SupportedExtensions returns the file extensions this decoder handles
	SupportedExtensions() []string
}

// Factory selects the decoder for a file by extension
type Factory struct {
	decoders map[string]Decoder
}

// NewFactory creates a factory with the built-in CSV and Excel decoders
func NewFactory() *Factory {
	f := &Factory{decoders: make(map[string]Decoder)}
	f.Register(NewCSVDecoder())
	f.Register(NewExcelDecoder())
	return f
}

// Register adds a decoder for its supported extensions
func (f *Factory) Register(d Decoder) {
	for _, ext := range d.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.decoders[ext] = d
	}
}

// ForFilename returns the decoder for the file's extension
func (f *Factory) ForFilename(filename string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	d, ok := f.decoders[ext]
	if !ok {
		return nil, apperrors.UnsupportedFormat(ext)
	}
	return d, nil
}

// Decode is a convenience that selects the decoder by filename and runs it
func (f *Factory) Decode(ctx context.Context, filename string, reader io.Reader) (*Table, error) {
	d, err := f.ForFilename(filename)
	if err != nil {
		return nil, err
	}
	return d.Decode(ctx, reader)
}
