// Package chat runs the conversational loop behind the /api/chat endpoint.
//
// A turn appends a time reminder and the user message to the session
// history, asks the model for a completion with the registered MCP tools
// offered as functions, dispatches any tool calls through the MCP server's
// tool registry, and feeds the results back until the model answers in text
// or the round limit is reached. Every message produced by the turn is
// appended to the session store.
//
// The model is reached through the Completer interface. OpenAICompleter is
// the production implementation.
package chat
