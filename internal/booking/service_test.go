package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/resolver"
	"github.com/teemow/calbooker/internal/timeutil"
)

type slotQuery struct {
	EventTypeID int64
	Start, End  string
}

type fakeProvider struct {
	eventTypes calcom.Result
	slots      calcom.Result
	created    calcom.Result
	bookings   calcom.Result
	cancelled  calcom.Result

	slotQueries []slotQuery
	creates     []calcom.CreateBookingParams
	cancels     []string
}

func (f *fakeProvider) ListEventTypes(context.Context) calcom.Result {
	return f.eventTypes
}

func (f *fakeProvider) ListBookings(context.Context, string) calcom.Result {
	return f.bookings
}

func (f *fakeProvider) ListSlots(_ context.Context, id int64, start, end string) calcom.Result {
	f.slotQueries = append(f.slotQueries, slotQuery{EventTypeID: id, Start: start, End: end})
	return f.slots
}

func (f *fakeProvider) CreateBooking(_ context.Context, params calcom.CreateBookingParams) calcom.Result {
	f.creates = append(f.creates, params)
	return f.created
}

func (f *fakeProvider) CancelBooking(_ context.Context, uid string) calcom.Result {
	f.cancels = append(f.cancels, uid)
	return f.cancelled
}

func body(s string) calcom.Result {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		panic(err)
	}
	r := calcom.Result{Body: json.RawMessage(s), Data: fields["data"]}
	_ = json.Unmarshal(fields["status"], &r.Status)
	return r
}

func failed(msg string) calcom.Result {
	return calcom.Result{Status: calcom.StatusError, Err: &calcom.RequestError{Message: msg}}
}

const eventTypesBody = `{"status":"success","data":[{"id":7,"title":"Intro Call","slug":"intro"}]}`

const slotsBody = `{"status":"success","data":{"2025-08-04":[{"start":"2025-08-04T18:00:00.000Z"},{"start":"2025-08-04T20:00:00.000Z"}]}}`

func createRequest(start string) CreateRequest {
	return CreateRequest{
		EventName:     "intro",
		DatetimeStart: start,
		Timezone:      "America/Los_Angeles",
		Reason:        "catch up",
		UserEmail:     "jane@example.com",
		UserName:      "Jane",
	}
}

func TestService_CreateExactSlot(t *testing.T) {
	p := &fakeProvider{
		eventTypes: body(eventTypesBody),
		slots:      body(slotsBody),
		created:    body(`{"status":"success","data":{"uid":"new-uid","id":99}}`),
	}
	s := NewService(p)

	got, err := s.Create(context.Background(), createRequest("2025-08-04T20:00:00.000Z"))
	require.NoError(t, err)

	assert.Equal(t, outcome.StatusSuccess, got.Status)
	assert.Equal(t, outcome.CodeAllMatched, got.Code)
	assert.Equal(t, "Booking created for 'intro' at 2025-08-04T20:00:00.000Z.", got.Message)
	assert.JSONEq(t, `{"uid":"new-uid","id":99}`, string(got.Data.(json.RawMessage)))

	require.Len(t, p.slotQueries, 1)
	assert.Equal(t, slotQuery{EventTypeID: 7, Start: "2025-08-04T00:00:00Z", End: "2025-08-04T23:59:59Z"}, p.slotQueries[0])

	require.Len(t, p.creates, 1)
	assert.Equal(t, calcom.CreateBookingParams{
		Start:       "2025-08-04T20:00:00.000Z",
		EventTypeID: 7,
		Attendee:    calcom.Attendee{Name: "Jane", Email: "jane@example.com", TimeZone: "America/Los_Angeles"},
		Notes:       "catch up",
	}, p.creates[0])
}

func TestService_CreateNaiveTimeUsesTimezone(t *testing.T) {
	p := &fakeProvider{
		eventTypes: body(eventTypesBody),
		slots:      body(slotsBody),
		created:    body(`{"status":"success","data":{}}`),
	}

	got, err := NewService(p).Create(context.Background(), createRequest("2025-08-04T13:00:00"))
	require.NoError(t, err)
	assert.Equal(t, outcome.CodeAllMatched, got.Code)
	assert.Equal(t, "2025-08-04T20:00:00.000Z", p.creates[0].Start)
}

func TestService_CreateNoExactSlot(t *testing.T) {
	p := &fakeProvider{
		eventTypes: body(eventTypesBody),
		slots:      body(slotsBody),
	}

	got, err := NewService(p).Create(context.Background(), createRequest("2025-08-04T20:15:00.000Z"))
	require.NoError(t, err)

	assert.Equal(t, outcome.StatusError, got.Status)
	assert.Equal(t, outcome.CodeAvailabilityNoExactMatch, got.Code)
	assert.Equal(t, "No exact match found for 'intro' at 2025-08-04T20:15:00.000Z.", got.Message)
	assert.JSONEq(t, `{"2025-08-04":[{"start":"2025-08-04T18:00:00.000Z"},{"start":"2025-08-04T20:00:00.000Z"}]}`,
		string(got.Data.(json.RawMessage)))
	assert.Empty(t, p.creates)
}

func TestService_CreateFailures(t *testing.T) {
	tests := []struct {
		name        string
		provider    *fakeProvider
		wantCode    outcome.Code
		wantMessage string
	}{
		{
			name:        "event type not found",
			provider:    &fakeProvider{eventTypes: body(`{"status":"success","data":[{"id":1,"title":"Standup","slug":"standup"}]}`)},
			wantCode:    outcome.CodeNoMatch,
			wantMessage: "No matching event found for 'intro'",
		},
		{
			name:        "catalog request failed",
			provider:    &fakeProvider{eventTypes: failed("503 Service Unavailable for url: x")},
			wantCode:    outcome.CodeCalcomAPIRequestFailed,
			wantMessage: "Request to Cal.com API failed",
		},
		{
			name:        "slots request failed",
			provider:    &fakeProvider{eventTypes: body(eventTypesBody), slots: failed("500 Internal Server Error for url: x")},
			wantCode:    outcome.CodeSlotsRequestFailed,
			wantMessage: "Failed to retrieve available time slots",
		},
		{
			name:        "slots status is neither success nor error",
			provider:    &fakeProvider{eventTypes: body(eventTypesBody), slots: body(`{"status":"pending"}`)},
			wantCode:    outcome.CodeUnknown,
			wantMessage: "Unknown error from `create_a_cal_booking`",
		},
		{
			name: "booking request failed",
			provider: &fakeProvider{
				eventTypes: body(eventTypesBody),
				slots:      body(slotsBody),
				created:    failed("409 Conflict for url: x"),
			},
			wantCode:    outcome.CodeCalcomAPIRequestFailed,
			wantMessage: "Request to Cal.com API failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewService(tt.provider).Create(context.Background(), createRequest("2025-08-04T20:00:00.000Z"))
			require.NoError(t, err)
			assert.Equal(t, outcome.StatusError, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

func TestService_LogsCarryOneComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := &fakeProvider{eventTypes: failed("503 Service Unavailable for url: x")}

	got, err := NewService(p, WithLogger(logger)).Create(context.Background(), createRequest("2025-08-04T20:00:00.000Z"))
	require.NoError(t, err)
	require.Equal(t, outcome.CodeCalcomAPIRequestFailed, got.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var sawResolver bool
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "component="), line)
		if strings.Contains(line, "component=resolver") {
			sawResolver = true
		}
	}
	assert.True(t, sawResolver)
}

func TestService_CreateBadDatetime(t *testing.T) {
	p := &fakeProvider{eventTypes: body(eventTypesBody)}

	_, err := NewService(p).Create(context.Background(), createRequest("tomorrow at noon"))
	require.Error(t, err)

	var parseErr *timeutil.ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Empty(t, p.slotQueries)
}

func TestService_List(t *testing.T) {
	tests := []struct {
		name        string
		result      calcom.Result
		wantStatus  outcome.Status
		wantCode    outcome.Code
		wantMessage string
		wantData    string
	}{
		{
			name:        "empty list",
			result:      body(`{"status":"success","data":[]}`),
			wantStatus:  outcome.StatusSuccess,
			wantCode:    outcome.CodeListBookingsEmpty,
			wantMessage: "No bookings found for jane@example.com",
			wantData:    `[]`,
		},
		{
			name:        "null data",
			result:      body(`{"status":"success","data":null}`),
			wantStatus:  outcome.StatusSuccess,
			wantCode:    outcome.CodeListBookingsEmpty,
			wantMessage: "No bookings found for jane@example.com",
			wantData:    `[]`,
		},
		{
			name: "bookings",
			result: body(`{"status":"success","data":[
				{"id":1,"uid":"a","title":"Intro Call","start":"2025-08-04T20:00:00.000Z","end":"2025-08-04T20:30:00.000Z","status":"accepted","attendees":[{"name":"Jane"}],"location":"x"},
				{"id":2,"uid":"b","title":"Sync","start":"2025-08-05T20:00:00.000Z","end":"2025-08-05T20:30:00.000Z","status":"accepted"}
			]}`),
			wantStatus:  outcome.StatusSuccess,
			wantCode:    outcome.CodeListBookingsSuccess,
			wantMessage: "Successfully retrived a list of bookings relevant to jane@example.com",
			wantData: `[
				{"uid":"a","id":1,"title":"Intro Call","startTime":"2025-08-04T20:00:00.000Z","endTime":"2025-08-04T20:30:00.000Z","status":"accepted","attendees":[{"name":"Jane"}]},
				{"uid":"b","id":2,"title":"Sync","startTime":"2025-08-05T20:00:00.000Z","endTime":"2025-08-05T20:30:00.000Z","status":"accepted","attendees":[]}
			]`,
		},
		{
			name:        "request failure",
			result:      failed("401 Unauthorized for url: x"),
			wantStatus:  outcome.StatusError,
			wantCode:    outcome.CodeUnknown,
			wantMessage: "Unknown error from `list_all_cal_bookings`",
			wantData:    `{"status":"error","error":"401 Unauthorized for url: x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewService(&fakeProvider{bookings: tt.result}).List(context.Background(), "jane@example.com")
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)

			data, err := json.Marshal(got.Data)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantData, string(data))
		})
	}
}

func TestService_ListIsIdempotent(t *testing.T) {
	p := &fakeProvider{bookings: body(`{"status":"success","data":[{"id":1,"uid":"a","title":"Sync","start":"2025-08-04T20:00:00.000Z"}]}`)}
	s := NewService(p)

	first := s.List(context.Background(), "jane@example.com")
	second := s.List(context.Background(), "jane@example.com")
	assert.Equal(t, first, second)
}

const twoSyncs = `{"status":"success","data":[
	{"id":1,"uid":"early","title":"Sync","start":"2025-08-04T20:00:00.000Z","end":"2025-08-04T20:30:00.000Z"},
	{"id":2,"uid":"late","title":"Sync","start":"2025-08-05T20:00:00.000Z","end":"2025-08-05T20:30:00.000Z"}
]}`

func TestService_Cancel(t *testing.T) {
	p := &fakeProvider{
		bookings:  body(twoSyncs),
		cancelled: body(`{"status":"success","data":{"uid":"late","status":"cancelled"}}`),
	}

	got, err := NewService(p).Cancel(context.Background(), CancelRequest{
		UserEmail:     "jane@example.com",
		BookingName:   "sync",
		DatetimeStart: "2025-08-05T20:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, outcome.CodeBookingFoundAndCancelled, got.Code)
	assert.Equal(t, "Booking cancelled 'sync' at 2025-08-05T20:00:00Z", got.Message)
	assert.Equal(t, []string{"late"}, p.cancels)

	data, err := json.Marshal(got.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cancelled_booking":{"uid":"late","id":2,"title":"Sync","startTime":"2025-08-05T20:00:00.000Z","endTime":"2025-08-05T20:30:00.000Z"},
		"cancellation_response":{"status":"success","data":{"uid":"late","status":"cancelled"}}
	}`, string(data))
}

func TestService_CancelFailures(t *testing.T) {
	tests := []struct {
		name        string
		provider    *fakeProvider
		datetime    string
		wantCode    outcome.Code
		wantMessage string
		wantCancels int
	}{
		{
			name:        "no booking at that time",
			provider:    &fakeProvider{bookings: body(twoSyncs)},
			datetime:    "2025-08-06T20:00:00Z",
			wantCode:    outcome.CodeBookingNotFound,
			wantMessage: "No matching booking found for 'sync' at 2025-08-06T20:00:00Z",
		},
		{
			name:        "provider refused with message",
			provider:    &fakeProvider{bookings: body(twoSyncs), cancelled: body(`{"status":"error","message":"Booking already cancelled"}`)},
			datetime:    "2025-08-04T20:00:00Z",
			wantCode:    outcome.CodeBookingCancellationFailed,
			wantMessage: "Failed to cancel: Booking already cancelled",
			wantCancels: 1,
		},
		{
			name:        "provider refused without message",
			provider:    &fakeProvider{bookings: body(twoSyncs), cancelled: body(`{"status":"error"}`)},
			datetime:    "2025-08-04T20:00:00Z",
			wantCode:    outcome.CodeBookingCancellationFailed,
			wantMessage: "Failed to cancel: Unknown error",
			wantCancels: 1,
		},
		{
			name:        "listing failed",
			provider:    &fakeProvider{bookings: failed("500 Internal Server Error for url: x")},
			datetime:    "2025-08-04T20:00:00Z",
			wantCode:    outcome.CodeCalcomAPIRequestFailed,
			wantMessage: "Request to Cal.com API failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewService(tt.provider).Cancel(context.Background(), CancelRequest{
				UserEmail:     "jane@example.com",
				BookingName:   "sync",
				DatetimeStart: tt.datetime,
			})
			require.NoError(t, err)
			assert.Equal(t, outcome.StatusError, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Len(t, tt.provider.cancels, tt.wantCancels)

			if tt.wantCode == outcome.CodeBookingCancellationFailed {
				data := got.Data.(CancelFailedData)
				assert.Equal(t, resolver.BookingMatch{
					UID: "early", ID: 1, Title: "Sync",
					StartTime: "2025-08-04T20:00:00.000Z", EndTime: "2025-08-04T20:30:00.000Z",
				}, data.FoundBooking)
			}
		})
	}
}

func TestService_CancelBadDatetime(t *testing.T) {
	_, err := NewService(&fakeProvider{}).Cancel(context.Background(), CancelRequest{DatetimeStart: "soon"})
	var parseErr *timeutil.ParseError
	assert.True(t, errors.As(err, &parseErr))
}
