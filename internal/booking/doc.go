// Package booking composes the Cal.com client and the resolver into the
// three operations exposed to the assistant: create, list, and cancel.
//
// Every operation returns an outcome.Outcome from the closed code taxonomy.
// Provider failures never surface as Go errors; the only error returned is a
// *timeutil.ParseError for a datetime that cannot be read.
//
// Creating a booking checks the slot list and then books the slot in a
// second request. Another client can take the slot in between; Cal.com
// rejects the second booking in that case and the failure is reported as
// a request failure.
package booking
