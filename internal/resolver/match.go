package resolver

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/timeutil"
)

// EventTypeMatch is the data of an event type outcome.
type EventTypeMatch struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	ID    int64  `json:"id"`
}

// BookingMatch is the data of a found booking.
type BookingMatch struct {
	UID       string `json:"uid"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// BookingSummary lists a booking when no match was found.
type BookingSummary struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func eventTypeMatch(e calcom.EventType) EventTypeMatch {
	return EventTypeMatch{Title: e.Title, Slug: e.Slug, ID: e.ID}
}

// score rates how well query (already lowered) fits an event type. It
// returns 0 when neither side contains the other.
func score(query, title, slug string) float64 {
	var best float64

	if strings.Contains(title, query) || strings.Contains(slug, query) {
		longest := max(utf8.RuneCountInString(title), utf8.RuneCountInString(slug))
		if longest > 0 {
			best = float64(utf8.RuneCountInString(query)) / float64(longest)
		}
	}

	if strings.Contains(query, title) || strings.Contains(query, slug) {
		if s := float64(utf8.RuneCountInString(title)) / float64(utf8.RuneCountInString(query)); s > best {
			best = s
		}
	}

	return best
}

// FindEventTypeByName picks the event type in catalog that best fits query.
//
// An event type whose title or slug equals the query (ignoring case and
// surrounding whitespace) wins immediately. Otherwise the highest containment
// score wins, ties going to the earlier entry. With no candidate at all the
// outcome is NoMatch and lists the whole catalog.
func FindEventTypeByName(query string, catalog []calcom.EventType) outcome.Outcome {
	q := strings.ToLower(strings.TrimSpace(query))

	var best *calcom.EventType
	var bestScore float64

	for i := range catalog {
		title := strings.ToLower(catalog[i].Title)
		slug := strings.ToLower(catalog[i].Slug)

		if q == title || q == slug {
			return outcome.Success(outcome.CodeFoundMatch, "Found the exact match", eventTypeMatch(catalog[i]))
		}
		if q == "" {
			continue
		}

		if s := score(q, title, slug); s > bestScore {
			bestScore = s
			best = &catalog[i]
		}
	}

	if best != nil {
		return outcome.Success(outcome.CodeFoundMatch, "Found the best match", eventTypeMatch(*best))
	}

	candidates := make([]EventTypeMatch, 0, len(catalog))
	for _, e := range catalog {
		candidates = append(candidates, eventTypeMatch(e))
	}
	return outcome.Error(outcome.CodeNoMatch, fmt.Sprintf("No matching event found for '%s'", query), candidates)
}

// FindBookingByNameAndTime finds the booking titled name that starts at
// datetime. datetime is read as UTC when it carries no offset. Bookings whose
// start cannot be parsed are skipped. A *timeutil.ParseError is returned
// when datetime itself cannot be parsed.
func FindBookingByNameAndTime(name, datetime string, bookings []calcom.Booking, logger *slog.Logger) (outcome.Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}

	want, err := timeutil.ToUTC(datetime, "")
	if err != nil {
		return outcome.Outcome{}, err
	}

	q := strings.ToLower(strings.TrimSpace(name))

	for _, b := range bookings {
		start, err := timeutil.ToUTC(b.Start, "")
		if err != nil {
			logger.Warn("could not parse booking start time",
				slog.String("booking_uid", b.UID),
				slog.String("start", b.Start),
				slog.String("error", err.Error()))
			continue
		}

		if q == strings.ToLower(b.Title) && start == want {
			return outcome.Success(outcome.CodeFoundMatch, "Found exact match for booking", BookingMatch{
				UID:       b.UID,
				ID:        b.ID,
				Title:     b.Title,
				StartTime: b.Start,
				EndTime:   b.End,
			}), nil
		}
	}

	available := make([]BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		available = append(available, BookingSummary{UID: b.UID, Title: b.Title, StartTime: b.Start, EndTime: b.End})
	}

	return outcome.Error(outcome.CodeBookingNotFound,
		fmt.Sprintf("No matching booking found for '%s' at %s", name, datetime), available), nil
}
