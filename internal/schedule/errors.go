package schedule

import "errors"

// Extraction failures. Callers match them with errors.Is; the wrapped message names
// the offending field.
var (
	// ErrStructureMismatch means an expected line, row, cell or token is missing
	// or the count is wrong.
	ErrStructureMismatch = errors.New("structure mismatch")

	// ErrMalformedNumericField means an id or seat count is not an unsigned integer.
	ErrMalformedNumericField = errors.New("malformed numeric field")

	// ErrUnknownMonthName means a date uses a month name outside the French month table.
	ErrUnknownMonthName = errors.New("unknown month name")

	// ErrMalformedTimeField means a time range has fewer than 4 tokens.
	ErrMalformedTimeField = errors.New("malformed time field")
)
