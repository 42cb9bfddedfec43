package normalize

import "strings"

// Identifier canonicalizes a free-text identifier cell: trimmed,
// uppercased, inner whitespace collapsed.
func Identifier(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// Text trims a free-text cell, collapsing inner whitespace runs.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
