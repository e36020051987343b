package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// InstantLayout is the canonical UTC instant format. Milliseconds are always zero.
	InstantLayout = "2006-01-02T15:04:05.000Z"

	// WindowLayout is the format of day window bounds.
	WindowLayout = "2006-01-02T15:04:05Z"

	dateLayout = "2006-01-02"
)

// Layouts tried when dateparse rejects a string. time.Parse accepts a
// fractional second after the seconds field even when the layout has none.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02T15:04:05-07",
	"2006-01-02T15:04:05 -07:00",
	"2006-01-02T15:04:05 MST",
	"20060102T150405Z0700",
	"20060102T1504Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102T150405",
	"20060102T1504",
	dateLayout,
}

// offsetCheckZone is any zone other than UTC. A string that parses to the same
// instant in UTC and here carries its own offset.
var offsetCheckZone = time.FixedZone("UTC+1", 60*60)

var errUnrecognizedFormat = errors.New("unrecognized datetime format")

// ToUTC converts a datetime string to the canonical UTC instant format.
//
// A string with an offset is converted directly. A naive string is read as
// wall clock time in fallbackZone, or as UTC when fallbackZone is empty.
// Sub-second precision is dropped.
func ToUTC(value, fallbackZone string) (string, error) {
	t, err := Parse(value, fallbackZone)
	if err != nil {
		return "", err
	}
	return FormatInstant(t), nil
}

// DayRangeUTC returns the UTC calendar day containing the given instant.
// Naive strings are treated as UTC.
func DayRangeUTC(value string) (TimeWindow, error) {
	t, err := Parse(value, "")
	if err != nil {
		return TimeWindow{}, err
	}
	return DayWindow(t), nil
}

// DayWindow returns the UTC calendar day containing t.
func DayWindow(t time.Time) TimeWindow {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Second)
	return TimeWindow{
		Start: start.Format(WindowLayout),
		End:   end.Format(WindowLayout),
	}
}

// FormatInstant formats t as a canonical UTC instant.
func FormatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(InstantLayout)
}

// Parse reads value using the same rules as ToUTC and returns the instant in UTC.
// A string with an offset parses even when fallbackZone is unknown.
func Parse(value, fallbackZone string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, &ParseError{Value: value, Zone: fallbackZone, Err: errors.New("empty string")}
	}

	loc := time.UTC
	if fallbackZone != "" {
		l, err := time.LoadLocation(fallbackZone)
		if err != nil {
			if t, ok := parseZoned(s); ok {
				return t, nil
			}
			return time.Time{}, &ParseError{Value: value, Zone: fallbackZone, Err: fmt.Errorf("unknown timezone: %w", err)}
		}
		loc = l
	}

	t, err := parseIn(s, loc)
	if err != nil {
		return time.Time{}, &ParseError{Value: value, Zone: fallbackZone, Err: err}
	}
	return t.UTC(), nil
}

// parseIn reads s, taking wall clock time in loc when s has no offset.
func parseIn(s string, loc *time.Location) (time.Time, error) {
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnrecognizedFormat
}

// parseZoned reads s only if it carries its own offset.
func parseZoned(s string) (time.Time, bool) {
	t, err := parseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	shifted, err := parseIn(s, offsetCheckZone)
	if err != nil || !shifted.Equal(t) {
		return time.Time{}, false
	}
	return t.UTC(), true
}
