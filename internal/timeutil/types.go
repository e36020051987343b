package timeutil

import "fmt"

// TimeWindow is a pair of UTC timestamps with second precision.
// Start is never after End.
type TimeWindow struct {
	// Start is the first second of the window (e.g., "2025-08-04T00:00:00Z")
	Start string `json:"start"`

	// End is the last second of the window (e.g., "2025-08-04T23:59:59Z")
	End string `json:"end"`
}

// Date returns the calendar date shared by both bounds (YYYY-MM-DD).
func (w TimeWindow) Date() string {
	if len(w.Start) < len(dateLayout) {
		return w.Start
	}
	return w.Start[:len(dateLayout)]
}

// ParseError is returned when a datetime string or timezone cannot be parsed.
type ParseError struct {
	// Value is the input that failed to parse
	Value string

	// Zone is the fallback timezone, if one was given
	Zone string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("error parsing datetime string '%s' (zone: %s): %v", e.Value, e.Zone, e.Err)
	}
	return fmt.Sprintf("error parsing datetime string '%s': %v", e.Value, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ParseError) Unwrap() error {
	return e.Err
}
