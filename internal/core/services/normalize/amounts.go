package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountConvention selects how a monetary cell's separators are read.
// The convention is fixed per import type, never auto-detected: the two
// source systems disagree and a value like "1.234" is ambiguous.
type AmountConvention int

const (
	// ConvencionPesos reads symbol-led values with dot thousands and
	// comma decimals: "$ 1.234.567,89".
	ConvencionPesos AmountConvention = iota
	// ConvencionPlana reads plain dot-decimal values: "1234567.89".
	ConvencionPlana
)

// Amount parses a monetary cell into a non-negative decimal. Currency
// symbols, ordinary and non-breaking spaces are stripped first; the
// remaining separators are read per the given convention. Unparseable
// or negative input returns ok=false (absent).
func Amount(s string, conv AmountConvention) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}

	switch conv {
	case ConvencionPesos:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case ConvencionPlana:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// CanonicalAmount renders an amount with exactly two decimal places,
// the form used inside idempotency keys.
func CanonicalAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
