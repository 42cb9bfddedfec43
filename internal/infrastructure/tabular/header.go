package tabular

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// ColumnSpec describes one logical column of an import file: its name,
// the accepted header aliases (matched case- and diacritic-insensitively
// by substring) and whether the run may proceed without it.
type ColumnSpec struct {
	Name     string
	Aliases  []string
	Required bool
}

// Layout maps logical column names to cell indices, resolved once from
// the file header.
type Layout struct {
	indices map[string]int
}

// Index returns the cell index of a bound logical column, or -1 when the
// (optional) column was absent from the file.
func (l *Layout) Index(name string) int {
	idx, ok := l.indices[name]
	if !ok {
		return -1
	}
	return idx
}

// Cell returns the row's cell for a logical column, or "" when the
// column is absent.
func (l *Layout) Cell(row Row, name string) string {
	return row.Cell(l.Index(name))
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes a header cell for alias lookup: strips
// diacritics, trims, uppercases and collapses inner whitespace, so
// "Nº Comparendo" and "N COMPARENDO " resolve identically.
func NormalizeHeader(s string) string {
	if out, _, err := transform.String(stripDiacritics, s); err == nil {
		s = out
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	// The ordinal sign survives diacritic stripping; the legacy exports
	// use it interchangeably with a plain N.
	s = strings.ReplaceAll(s, "º", "")
	s = strings.ReplaceAll(s, "°", "")
	return strings.Join(strings.Fields(s), " ")
}

// Bind resolves every logical column against the file header. Aliases
// are tried in declared order, so an exact header form listed before a
// bare substring wins no matter where its column sits in the file;
// within one alias the first matching header cell wins. A missing
// required column aborts the whole run before any row is processed.
func Bind(header []string, specs []ColumnSpec) (*Layout, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
	}

	layout := &Layout{indices: make(map[string]int, len(specs))}

	for _, spec := range specs {
		idx := -1
	scan:
		for _, alias := range spec.Aliases {
			needle := NormalizeHeader(alias)
			for i, h := range normalized {
				if h != "" && strings.Contains(h, needle) {
					idx = i
					break scan
				}
			}
		}
		if idx == -1 {
			if spec.Required {
				return nil, apperrors.MissingColumn(spec.Name)
			}
			continue
		}
		layout.indices[spec.Name] = idx
	}

	return layout, nil
}
