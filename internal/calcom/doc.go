// Package calcom provides a client for the Cal.com v2 REST API.
//
// The client covers the calls the booking assistant needs:
//   - event types (list, get, create)
//   - available slots for an event type within a time window
//   - bookings (create, list by attendee, cancel by uid)
//   - the authenticated profile, used to validate the API key
//
// Requests never return Go errors for transport or HTTP failures. Each call
// yields a Result, which is either the decoded provider body or a failure
// carrying a RequestError. Callers branch on Result.IsError.
//
// Every endpoint is pinned to the cal-api-version header Cal.com expects for
// it. Requests are spaced by a rate limiter, and only the event type catalog
// is retried, since it is a read-only call.
//
// Example usage:
//
//	client, err := calcom.NewClient(calcom.Config{
//	    APIKey:   os.Getenv("CALCOM_API_KEY"),
//	    Username: "jane",
//	})
//	if err != nil {
//	    return err
//	}
//
//	result := client.ListEventTypes(ctx)
//	if result.IsError() {
//	    return fmt.Errorf("listing event types: %s", result.ErrorMessage())
//	}
//	var eventTypes []calcom.EventType
//	if err := result.DecodeData(&eventTypes); err != nil {
//	    return err
//	}
package calcom
