// Package booking_tools registers the Cal.com booking tools on an MCP server.
//
// The same tool definitions serve MCP clients directly and are converted to
// function calling schemas by the chat package, so there is a single source
// for tool names, descriptions, and parameters.
//
// Available tools:
//   - create_a_cal_booking: book an event type at an exact time
//   - list_all_cal_bookings: list a user's upcoming bookings
//   - cancel_user_booking: cancel a booking found by title and start time
//
// Each tool returns the booking outcome as JSON:
//
//	{"status": "success", "result": {"code": "found_match", "message": "...", "data": {...}}}
package booking_tools
