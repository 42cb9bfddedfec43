// Package keys derives the two kinds of keys the importer works with:
// the variant set used for fuzzy matching against existing records, and
// the canonical idempotency key used to detect already-imported rows.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/services/normalize"
)

// separatorStripper removes the punctuation the source and target
// systems disagree on when spelling the same reference number.
var separatorStripper = strings.NewReplacer("-", "", " ", "", ".", "", "/", "")

// Variants returns the normalized renderings of a natural identifier:
// verbatim, trimmed/uppercased, zero-stripped and separator-stripped.
// Duplicates are removed, order is stable. An empty identifier yields
// an empty set.
func Variants(id string) []string {
	trimmed := normalize.Identifier(id)
	if trimmed == "" {
		return nil
	}

	candidates := []string{
		id,
		trimmed,
		strings.TrimLeft(trimmed, "0"),
		separatorStripper.Replace(trimmed),
		strings.TrimLeft(separatorStripper.Replace(trimmed), "0"),
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Idempotency builds the canonical key of one parsed row from its
// natural identifier, reference date, amount and counterparty. Equal
// inputs always produce an identical key: no randomness, no clock. The
// key is the SHA-256 of a normalized join so it fits a fixed-width
// indexed column.
func Idempotency(naturalID string, refDate *time.Time, amount decimal.Decimal, counterparty string) string {
	parts := []string{
		separatorStripper.Replace(normalize.Identifier(naturalID)),
		normalize.CanonicalDate(refDate),
		normalize.CanonicalAmount(amount),
		normalize.Identifier(counterparty),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
