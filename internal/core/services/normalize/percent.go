package normalize

import (
	"strconv"
	"strings"
)

// DefaultPercent is what an out-of-range or unparseable percentage cell
// falls back to instead of failing the row.
const DefaultPercent = 0.0

// Percent parses a percentage cell ("30", "30%", "12,5 %") into the
// 0-100 range. The trailing percent sign is stripped and a decimal
// comma is accepted. Out-of-range and unparseable values clamp to
// DefaultPercent rather than failing the row.
func Percent(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return DefaultPercent
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return DefaultPercent
	}
	return v
}
