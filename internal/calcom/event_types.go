package calcom

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
)

// ListEventTypes lists the configured user's event types. This is the only
// call that is retried, following the client's catalog retry policy.
func (c *Client) ListEventTypes(ctx context.Context) Result {
	params := url.Values{}
	if c.username != "" {
		params.Set("username", c.username)
	}

	return c.catalogRetry.Run(ctx, instrumentation.OperationListEventTypes,
		func(ctx context.Context) Result {
			return c.Get(ctx, instrumentation.OperationListEventTypes, "event-types", params, "")
		},
		func(attempt int, r Result) {
			c.logger.Warn("event type listing attempt failed",
				logging.Operation(instrumentation.OperationListEventTypes),
				slog.Int("attempt", attempt),
				slog.String("message", r.ErrorMessage()))
		},
	)
}

// GetEventType fetches one event type by ID.
func (c *Client) GetEventType(ctx context.Context, id int64) Result {
	return c.Get(ctx, instrumentation.OperationGetEventType, fmt.Sprintf("event-types/%d", id), nil, "")
}

// CreateEventType creates an event type with a single name booking field,
// a five business day rolling window, and a Google Meet location.
func (c *Client) CreateEventType(ctx context.Context, params CreateEventTypeParams) Result {
	payload := map[string]any{
		"lengthInMinutes": params.LengthInMinutes,
		"title":           params.Title,
		"slug":            params.Slug,
		"bookingFields": []map[string]any{
			{
				"type":             "name",
				"label":            "Name",
				"placeholder":      "John Doe",
				"disableOnPrefill": true,
			},
		},
		"bookingWindow":      map[string]any{"type": "businessDays", "value": 5, "rolling": true},
		"bookerLayouts":      map[string]any{"defaultLayout": "month", "enabledLayouts": []string{"month"}},
		"confirmationPolicy": map[string]any{"disabled": true},
		"recurrence":         map[string]any{"disabled": true},
		"color":              map[string]any{"lightThemeHex": "#292929", "darkThemeHex": "#fafafa"},
		"locations":          []map[string]any{{"type": "integration", "integration": "google-meet"}},
	}

	return c.Post(ctx, instrumentation.OperationCreateEventType, "event-types", payload, "")
}

// ListSlots lists available slots for an event type between start and end (UTC).
func (c *Client) ListSlots(ctx context.Context, eventTypeID int64, start, end string) Result {
	params := url.Values{}
	params.Set("eventTypeId", fmt.Sprintf("%d", eventTypeID))
	params.Set("start", start)
	params.Set("end", end)

	return c.Get(ctx, instrumentation.OperationListSlots, "slots", params, SlotsAPIVersion)
}

// Me returns the profile of the API key's owner.
func (c *Client) Me(ctx context.Context) Result {
	return c.Get(ctx, instrumentation.OperationMe, "me", nil, "")
}

// Validate checks the API key against the profile endpoint. It returns
// ErrInvalidAPIKey when Cal.com answers 401, and the request error for any
// other failure.
func (c *Client) Validate(ctx context.Context) error {
	r := c.Me(ctx)
	if !r.Failed() {
		return nil
	}
	if r.Err.StatusCode == 401 {
		return ErrInvalidAPIKey
	}
	return r.Err
}
