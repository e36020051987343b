// Package cmd implements the command-line interface for calbooker.
//
// This package provides the following commands:
//   - serve: Start the chat API and MCP server (or MCP over stdio)
//   - bookings: List, create, and cancel bookings directly
//   - event-types: List, inspect, and create Cal.com event types
//   - migrate: Apply the Postgres session store migrations
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Settings come from flags, environment variables (a .env file is loaded
// when present), and an optional config file.
package cmd
