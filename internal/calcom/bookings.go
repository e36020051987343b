package calcom

import (
	"context"
	"fmt"
	"net/url"

	"github.com/teemow/calbooker/internal/instrumentation"
)

// BookingStatusUpcoming filters bookings that have not started yet.
const BookingStatusUpcoming = "upcoming"

// CancellationReason is sent with every cancellation.
const CancellationReason = "User requested cancellation"

// CreateBooking books params.Start for the attendee. It is never retried.
func (c *Client) CreateBooking(ctx context.Context, params CreateBookingParams) Result {
	payload := map[string]any{
		"start":       params.Start,
		"eventTypeId": params.EventTypeID,
		"attendee":    params.Attendee,
		"bookingFieldsResponses": map[string]any{
			"notes": params.Notes,
		},
	}

	return c.Post(ctx, instrumentation.OperationCreateBooking, "bookings", payload, BookingsAPIVersion)
}

// ListBookings lists up to 20 upcoming bookings of an attendee, earliest first.
func (c *Client) ListBookings(ctx context.Context, attendeeEmail string) Result {
	params := url.Values{}
	params.Set("take", "20")
	params.Set("sortStart", "asc")
	params.Set("status", BookingStatusUpcoming)
	params.Set("attendeeEmail", attendeeEmail)

	return c.Get(ctx, instrumentation.OperationListBookings, "bookings", params, BookingsAPIVersion)
}

// CancelBooking cancels a booking by uid. It is never retried.
func (c *Client) CancelBooking(ctx context.Context, uid string) Result {
	payload := map[string]any{
		"cancellationReason":       CancellationReason,
		"cancelSubsequentBookings": false,
	}

	return c.Post(ctx, instrumentation.OperationCancelBooking, fmt.Sprintf("bookings/%s/cancel", url.PathEscape(uid)), payload, BookingsAPIVersion)
}
