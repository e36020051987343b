// Package session stores chat conversation histories.
//
// A Store keeps an ordered list of messages per session ID. Three backends
// are provided:
//   - MemoryStore: process local, expires idle sessions after a TTL
//   - RedisStore: one Redis list per session, refreshed TTL on every append
//   - PostgresStore: one row per message, schema managed by goose migrations
//
// Open selects a backend from a Config.
package session
