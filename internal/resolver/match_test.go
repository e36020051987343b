package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/timeutil"
)

func TestFindEventTypeByName(t *testing.T) {
	catalog := []calcom.EventType{
		{ID: 1, Title: "Intro Call", Slug: "intro"},
		{ID: 2, Title: "Design Review", Slug: "design-review"},
		{ID: 3, Title: "30 Min Meeting", Slug: "30min"},
	}

	tests := []struct {
		name        string
		query       string
		catalog     []calcom.EventType
		wantCode    outcome.Code
		wantMessage string
		wantID      int64
	}{
		{
			name:        "slug exact match",
			query:       "intro",
			catalog:     catalog[:1],
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the exact match",
			wantID:      1,
		},
		{
			name:        "title exact match ignores case and whitespace",
			query:       "  DESIGN review ",
			catalog:     catalog,
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the exact match",
			wantID:      2,
		},
		{
			name:        "query contained in title",
			query:       "design",
			catalog:     catalog[1:2],
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the best match",
			wantID:      2,
		},
		{
			name:        "title contained in query",
			query:       "book a 30 min meeting tomorrow",
			catalog:     catalog,
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the best match",
			wantID:      3,
		},
		{
			name:  "later candidate with a higher score wins",
			query: "design",
			catalog: []calcom.EventType{
				{ID: 1, Title: "Design Review Quarterly Planning", Slug: "design-review-quarterly-planning"},
				{ID: 2, Title: "Design Sync", Slug: "design-sync"},
			},
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the best match",
			wantID:      2,
		},
		{
			name:        "exact match wins over earlier fuzzy candidates",
			query:       "intro",
			catalog:     []calcom.EventType{{ID: 9, Title: "Intro Call Extended", Slug: "intro-long"}, catalog[0]},
			wantCode:    outcome.CodeFoundMatch,
			wantMessage: "Found the exact match",
			wantID:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindEventTypeByName(tt.query, tt.catalog)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.True(t, got.IsSuccess())

			match, ok := got.Data.(EventTypeMatch)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, match.ID)
		})
	}
}

func TestFindEventTypeByName_NoMatch(t *testing.T) {
	catalog := []calcom.EventType{
		{ID: 1, Title: "Intro Call", Slug: "intro"},
		{ID: 2, Title: "Design Review", Slug: "design-review"},
	}

	got := FindEventTypeByName("Standup", catalog)
	assert.Equal(t, outcome.StatusError, got.Status)
	assert.Equal(t, outcome.CodeNoMatch, got.Code)
	assert.Equal(t, "No matching event found for 'Standup'", got.Message)
	assert.Equal(t, []EventTypeMatch{
		{Title: "Intro Call", Slug: "intro", ID: 1},
		{Title: "Design Review", Slug: "design-review", ID: 2},
	}, got.Data)

	empty := FindEventTypeByName("anything", nil)
	assert.Equal(t, outcome.CodeNoMatch, empty.Code)
	assert.Equal(t, []EventTypeMatch{}, empty.Data)
}

func TestFindEventTypeByName_TiesKeepFirst(t *testing.T) {
	catalog := []calcom.EventType{
		{ID: 1, Title: "Sync A", Slug: "sync-a"},
		{ID: 2, Title: "Sync B", Slug: "sync-b"},
	}

	got := FindEventTypeByName("sync", catalog)
	require.Equal(t, outcome.CodeFoundMatch, got.Code)
	assert.Equal(t, int64(1), got.Data.(EventTypeMatch).ID)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		title string
		slug  string
		want  float64
	}{
		{name: "query in title", query: "design", title: "design review", slug: "design-review", want: 6.0 / 13},
		{name: "longest of title and slug", query: "intro", title: "intro", slug: "intro-call-long", want: 1},
		{name: "title in query", query: "the intro call", title: "intro call", slug: "intro", want: 10.0 / 14},
		{name: "unrelated", query: "standup", title: "intro call", slug: "intro", want: 0},
		{name: "runes not bytes", query: "café", title: "café chat", slug: "cafe-chat", want: 4.0 / 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, score(tt.query, tt.title, tt.slug), 1e-9)
		})
	}
}

func TestFindBookingByNameAndTime(t *testing.T) {
	bookings := []calcom.Booking{
		{ID: 10, UID: "bad", Title: "Intro Call", Start: "not a time", End: "x"},
		{ID: 11, UID: "first", Title: "Intro Call", Start: "2025-08-04T20:00:00.000Z", End: "2025-08-04T20:30:00.000Z"},
		{ID: 12, UID: "second", Title: "Intro Call", Start: "2025-08-05T20:00:00.000Z", End: "2025-08-05T20:30:00.000Z"},
	}

	tests := []struct {
		name     string
		query    string
		datetime string
		wantCode outcome.Code
		wantUID  string
	}{
		{name: "same title picks matching start", query: "intro call", datetime: "2025-08-05T20:00:00Z", wantCode: outcome.CodeFoundMatch, wantUID: "second"},
		{name: "offset input", query: "Intro Call", datetime: "2025-08-04T13:00:00-07:00", wantCode: outcome.CodeFoundMatch, wantUID: "first"},
		{name: "naive input is utc", query: "Intro Call", datetime: "2025-08-04T20:00:00", wantCode: outcome.CodeFoundMatch, wantUID: "first"},
		{name: "wrong time", query: "Intro Call", datetime: "2025-08-04T21:00:00Z", wantCode: outcome.CodeBookingNotFound},
		{name: "title must match exactly", query: "Intro", datetime: "2025-08-04T20:00:00Z", wantCode: outcome.CodeBookingNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindBookingByNameAndTime(tt.query, tt.datetime, bookings, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, got.Code)

			if tt.wantUID != "" {
				assert.Equal(t, "Found exact match for booking", got.Message)
				assert.Equal(t, tt.wantUID, got.Data.(BookingMatch).UID)
				return
			}

			assert.Equal(t, "No matching booking found for '"+tt.query+"' at "+tt.datetime, got.Message)
			assert.Len(t, got.Data.([]BookingSummary), len(bookings))
		})
	}
}

func TestFindBookingByNameAndTime_BadDatetime(t *testing.T) {
	_, err := FindBookingByNameAndTime("Intro", "next tuesday", nil, nil)
	require.Error(t, err)

	var parseErr *timeutil.ParseError
	assert.True(t, errors.As(err, &parseErr))
}
