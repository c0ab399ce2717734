package schedule

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// monthNumbers maps French month names, as printed on the schedule pages, to month numbers
var monthNumbers = map[string]int{
	"janvier":   1,
	"février":   2,
	"mars":      3,
	"avril":     4,
	"mai":       5,
	"juin":      6,
	"juillet":   7,
	"août":      8,
	"septembre": 9,
	"octobre":   10,
	"novembre":  11,
	"décembre":  12,
}

// Markers in front of the first and second date of a range ("Du 5 septembre 2022",
// "au 12 décembre 2022")
const (
	rangeStartMarker = "Du "
	rangeEndMarker   = "au "
)

// MonthNumber returns the month number for a French month name.
// Case and Unicode composition are ignored, so "Février" and a decomposed
// "février" both resolve to 2.
func MonthNumber(name string) (int, bool) {
	// Casers keep state and are not shared between calls
	key := cases.Lower(language.French).String(norm.NFC.String(strings.TrimSpace(name)))
	n, ok := monthNumbers[key]
	return n, ok
}

// NormalizeDate formats a day, French month name and year as YYYY-MM-DD.
// Day and year are used as given; only the day and month are zero-padded.
func NormalizeDate(day, month, year string) (string, error) {
	n, ok := MonthNumber(month)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMonthName, month)
	}
	return fmt.Sprintf("%s-%02d-%s", year, n, padDay(day)), nil
}

// ParseDateToken normalizes one side of a date range such as "Du 5 septembre 2022"
// or "au 12 décembre 2022".
func ParseDateToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, rangeStartMarker)
	token = strings.TrimPrefix(token, rangeEndMarker)

	parts := strings.Fields(token)
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: date %q has %d parts, want 3", ErrStructureMismatch, token, len(parts))
	}

	return NormalizeDate(parts[0], parts[1], parts[2])
}

// padDay left-pads a day with zeros to two characters
func padDay(day string) string {
	if len(day) >= 2 {
		return day
	}
	return strings.Repeat("0", 2-len(day)) + day
}
