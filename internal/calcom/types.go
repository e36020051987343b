package calcom

import (
	"encoding/json"
	"fmt"
)

// Provider response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// EventType is a bookable meeting template.
type EventType struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	LengthInMinutes int    `json:"lengthInMinutes,omitempty"`
}

// Slot is a bookable instant for an event type.
type Slot struct {
	// Start is the slot start in UTC (e.g., "2025-08-04T20:00:00.000Z")
	Start string `json:"start"`
}

// Slots maps a calendar date (YYYY-MM-DD) to the slots on that date.
type Slots map[string][]Slot

// Booking is a booking as returned by the bookings endpoints.
type Booking struct {
	ID     int64  `json:"id"`
	UID    string `json:"uid"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`

	// Attendees is passed through untouched
	Attendees json.RawMessage `json:"attendees,omitempty"`
}

// Attendee identifies the person a booking is made for.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
}

// CreateBookingParams holds the inputs of a booking creation.
type CreateBookingParams struct {
	// Start must be a slot start exactly as returned by ListSlots
	Start       string
	EventTypeID int64
	Attendee    Attendee
	Notes       string
}

// CreateEventTypeParams holds the inputs of an event type creation.
type CreateEventTypeParams struct {
	LengthInMinutes int
	Title           string
	Slug            string
}

// RequestError describes a request that did not produce a usable response.
type RequestError struct {
	// Op is the client operation (e.g., "list_slots")
	Op string

	// URL is the requested URL including the query string
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received
	StatusCode int

	// Message is the human readable error, in the form "<status> for url: <url>" for HTTP failures
	Message string

	// Err is the underlying transport or decoding error, if any
	Err error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("calcom %s: %s", e.Op, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RequestError) Unwrap() error {
	return e.Err
}
