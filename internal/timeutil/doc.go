// Package timeutil normalizes user supplied datetime strings into the canonical
// UTC representations used when talking to Cal.com.
//
// Two representations are produced:
//   - instants, formatted as YYYY-MM-DDTHH:MM:SS.000Z (the format Cal.com uses for slot starts)
//   - day windows, the first and last second of a UTC calendar date
//
// Strings that carry an offset are converted to UTC. Naive strings are
// interpreted in a caller supplied IANA zone, or as UTC when no zone is given.
//
// Example usage:
//
//	start, err := timeutil.ToUTC("2025-08-04T13:00:00", "America/Los_Angeles")
//	if err != nil {
//	    return err
//	}
//	// start == "2025-08-04T20:00:00.000Z"
//
//	window, err := timeutil.DayRangeUTC(start)
//	// window.Start == "2025-08-04T00:00:00Z", window.End == "2025-08-04T23:59:59Z"
package timeutil
