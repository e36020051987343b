package instrumentation

import "strings"

// ExtractUserDomain returns the domain part of an email address, or "unknown".
// Used wherever a user identifier would otherwise become a metric label.
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// Provider operation names used for metrics and span names.
const (
	OperationListEventTypes  = "list_event_types"
	OperationGetEventType    = "get_event_type"
	OperationCreateEventType = "create_event_type"
	OperationListSlots       = "list_slots"
	OperationCreateBooking   = "create_booking"
	OperationListBookings    = "list_bookings"
	OperationCancelBooking   = "cancel_booking"
	OperationMe              = "me"
)

// Booking orchestrator operation names.
const (
	BookingCreate = "create"
	BookingList   = "list"
	BookingCancel = "cancel"
)
