// Package normalize converts raw cell text into typed values. Every
// function is pure: invalid input yields an explicit "absent" result,
// never an error, because unparseable optional fields are an expected
// steady-state outcome of the legacy exports.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// twoDigitYearPivot: two-digit years below it are 2000s, the rest 1900s.
const twoDigitYearPivot = 50

// Date parses a day/month/year cell ("15/06/1999", "15-06-99") into a
// calendar date. Two-digit years below 50 map to the 2000s. Impossible
// calendar dates (31/04) and garbage return ok=false; callers treat
// that as absent, not fatal.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Native spreadsheet cells may carry a zero time component.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}

	sep := "/"
	if strings.Contains(s, "-") && !strings.Contains(s, "/") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	switch {
	case year < twoDigitYearPivot:
		year += 2000
	case year < 100:
		year += 1900
	}
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/04 becomes 01/05); reject that.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// DatePtr is Date returning a nullable value for direct assignment to
// optional model fields.
func DatePtr(s string) *time.Time {
	t, ok := Date(s)
	if !ok {
		return nil
	}
	return &t
}

// CanonicalDate renders a parsed date in the canonical YYYY-MM-DD text
// form used inside idempotency keys.
func CanonicalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
