package importer

import (
	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/matching"
)

// Classifier decides, row by row and in file order, whether a parsed
// row is matched, duplicate or unmatched. It owns the run-local
// de-duplication set; nothing else mutates between rows, so the only
// ordering dependency is that row K can be a duplicate of row J < K,
// never of a later row.
type Classifier struct {
	index *matching.Index
	seen  map[string]struct{}
}

// NewClassifier creates a classifier over a freshly built index
func NewClassifier(index *matching.Index) *Classifier {
	return &Classifier{
		index: index,
		seen:  make(map[string]struct{}),
	}
}

// Classify tags one row. The duplicate check runs before the match
// check: a row that is both a duplicate and structurally matchable is
// a duplicate. The row's idempotency key is registered immediately, so
// within-file duplicates are caught, not just file-vs-store ones.
func (c *Classifier) Classify(row RowInfo) ClassifiedRow {
	key := row.IdempotencyKey()
	_, inFile := c.seen[key]
	c.seen[key] = struct{}{}

	if inFile || c.index.HasHash(key) {
		return ClassifiedRow{Row: row, Class: ClassDuplicate}
	}

	if targetID, ok := c.index.Resolve(row.NaturalID()); ok {
		return ClassifiedRow{
			Row:         row,
			Class:       ClassMatched,
			TargetID:    targetID,
			TargetLabel: c.index.Label(targetID),
		}
	}

	return ClassifiedRow{Row: row, Class: ClassUnmatched}
}

// ClassifyAll classifies rows preserving file order
func (c *Classifier) ClassifyAll(rows []RowInfo) []ClassifiedRow {
	out := make([]ClassifiedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, c.Classify(row))
	}
	return out
}
