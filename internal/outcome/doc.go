// Package outcome defines the uniform result returned by every booking operation.
//
// An Outcome carries a status (success or error), a code from a closed set,
// a human readable message, and arbitrary data for the caller or the language
// model to act on. Expected failures such as "no matching event" are outcomes,
// never Go errors.
//
// Outcomes serialize to the shape the chat frontend consumes:
//
//	{"status": "success", "result": {"code": "found_match", "message": "...", "data": {...}}}
package outcome
