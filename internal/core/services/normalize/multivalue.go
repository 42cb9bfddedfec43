package normalize

import "strings"

// MultiValueSeparator splits cells that pack several sub-values for one
// logical row, e.g. an agreement covering cases "123-456-789".
const MultiValueSeparator = "-"

// SplitMulti splits a packed cell into its sub-values, trimming each.
// Empty sub-values are dropped; an empty cell yields an empty slice.
func SplitMulti(s string) []string {
	parts := strings.Split(s, MultiValueSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PadMulti stretches a per-position value list to the expansion count.
// Positions beyond the list's length take the FIRST element: the legacy
// exports only repeat a shared value once, so "last known value carries
// forward" is deliberate policy, not a bug. An empty list pads with "".
func PadMulti(values []string, count int) []string {
	out := make([]string, count)
	for i := 0; i < count; i++ {
		switch {
		case i < len(values):
			out[i] = values[i]
		case len(values) > 0:
			out[i] = values[0]
		default:
			out[i] = ""
		}
	}
	return out
}
