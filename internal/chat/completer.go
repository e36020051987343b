package chat

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calbooker/internal/session"
)

// Completer asks a language model for the next assistant message.
type Completer interface {
	// Complete returns the assistant reply to messages. tools may be empty,
	// in which case the reply has no tool calls.
	Complete(ctx context.Context, messages []session.Message, tools []mcp.Tool) (session.Message, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, messages []session.Message, tools []mcp.Tool) (session.Message, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, messages []session.Message, tools []mcp.Tool) (session.Message, error) {
	return f(ctx, messages, tools)
}
