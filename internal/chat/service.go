package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
	"github.com/teemow/calbooker/internal/session"
)

// DefaultSessionID is used when a request carries no session ID.
const DefaultSessionID = "default"

// DefaultMaxToolRounds bounds how often the model may call tools in one turn.
const DefaultMaxToolRounds = 3

// NoResponseMessage is returned when the model produced no text.
const NoResponseMessage = "No response generated"

// ToolRegistry looks up tools. *mcpserver.MCPServer satisfies it.
type ToolRegistry interface {
	ListTools() map[string]*mcpserver.ServerTool
	GetTool(name string) *mcpserver.ServerTool
}

// ToolResult reports one tool call made during a turn.
type ToolResult struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Response is the outcome of a chat turn.
type Response struct {
	Message     string       `json:"message"`
	ToolResults []ToolResult `json:"tool_results"`
	SessionID   string       `json:"session_id"`
}

// Service runs chat turns.
type Service struct {
	completer     Completer
	tools         ToolRegistry
	store         session.Store
	systemPrompt  string
	maxToolRounds int
	now           func() time.Time
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSystemPrompt sets the prompt that opens every new session.
// The default is FallbackSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) {
		s.systemPrompt = prompt
	}
}

// WithMaxToolRounds sets how many completions may request tools per turn.
func WithMaxToolRounds(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxToolRounds = n
		}
	}
}

// WithClock overrides the time source used in prompts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics counts new sessions.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a chat service.
func NewService(completer Completer, tools ToolRegistry, store session.Store, opts ...Option) *Service {
	s := &Service{
		completer:     completer,
		tools:         tools,
		store:         store,
		systemPrompt:  FallbackSystemPrompt,
		maxToolRounds: DefaultMaxToolRounds,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithComponent(s.logger, "chat")
	return s
}

// Store returns the session store.
func (s *Service) Store() session.Store {
	return s.store
}

// Chat runs one turn of the conversation identified by sessionID.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (*Response, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	message = strings.TrimSpace(message)

	history, exists, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	now := s.now()
	var added []session.Message
	push := func(msgs ...session.Message) {
		history = append(history, msgs...)
		added = append(added, msgs...)
	}

	if !exists {
		push(session.Message{Role: session.RoleSystem, Content: systemMessageContent(s.systemPrompt, now)})
		s.metrics.IncrementActiveSessions(ctx)
		s.logger.Info("Session created", logging.Session(sessionID))
	}
	push(
		session.Message{Role: session.RoleSystem, Content: reminderContent(now)},
		session.Message{Role: session.RoleUser, Content: message},
	)

	resp := &Response{
		ToolResults: []ToolResult{},
		SessionID:   sessionID,
	}
	tools := s.listTools()

	var reply session.Message
	for round := 0; ; round++ {
		offered := tools
		if round >= s.maxToolRounds {
			offered = nil
		}

		reply, err = s.completer.Complete(ctx, history, offered)
		if err != nil {
			if saveErr := s.store.Append(ctx, sessionID, added...); saveErr != nil {
				s.logger.Warn("Failed to save session", logging.Session(sessionID), logging.Err(saveErr))
			}
			return nil, fmt.Errorf("completion failed: %w", err)
		}
		if offered == nil && len(reply.ToolCalls) > 0 {
			s.logger.Warn("Ignoring tool calls past the round limit", logging.Session(sessionID), "calls", len(reply.ToolCalls))
			reply.ToolCalls = nil
		}
		push(reply)

		if len(reply.ToolCalls) == 0 {
			break
		}
		for _, call := range reply.ToolCalls {
			result := s.dispatch(ctx, call)
			resp.ToolResults = append(resp.ToolResults, result)
			push(session.Message{
				Role:       session.RoleTool,
				Content:    toolMessageContent(result),
				ToolCallID: call.ID,
			})
		}
	}

	if err := s.store.Append(ctx, sessionID, added...); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}

	resp.Message = reply.Content
	if strings.TrimSpace(resp.Message) == "" {
		resp.Message = NoResponseMessage
	}
	return resp, nil
}

// listTools returns the registered tools sorted by name.
func (s *Service) listTools() []mcp.Tool {
	registered := s.tools.ListTools()
	tools := make([]mcp.Tool, 0, len(registered))
	for _, st := range registered {
		tools = append(tools, st.Tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})
	return tools
}

// dispatch runs a tool call through the registry.
func (s *Service) dispatch(ctx context.Context, call session.ToolCall) ToolResult {
	result := ToolResult{Tool: call.Name}

	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &result.Args); err != nil {
			result.Error = fmt.Sprintf("Invalid arguments for %s: %v", call.Name, err)
			return result
		}
	}
	if result.Args == nil {
		result.Args = map[string]any{}
	}

	st := s.tools.GetTool(call.Name)
	if st == nil {
		s.logger.Warn("Model requested unknown tool", logging.Tool(call.Name))
		result.Error = "Unknown tool: " + call.Name
		return result
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = call.Name
	req.Params.Arguments = result.Args

	out, err := st.Handler(ctx, req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if out == nil {
		return result
	}

	text := resultText(out)
	if out.IsError {
		result.Error = text
		return result
	}
	if out.StructuredContent != nil {
		result.Result = out.StructuredContent
	} else {
		result.Result = text
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toolMessageContent(r ToolResult) string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%s failed to encode result: %v", r.Tool, err)
	}
	return string(data)
}
