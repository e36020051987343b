// Package resolver maps free-text names from a conversation onto Cal.com
// entities.
//
// Event types are matched by a simple containment score against their title
// and slug, so "design" finds "Design Review". Bookings are only matched
// exactly: the title must be equal ignoring case and the start must be the
// same UTC instant. Both return an outcome.Outcome so callers can hand the
// result straight back to the conversation.
package resolver
