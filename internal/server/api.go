package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calbooker/internal/chat"
	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/logging"
	"github.com/teemow/calbooker/internal/session"
)

const (
	// DefaultAddr is the default listen address of the API server.
	DefaultAddr = ":3020"

	chatEndpoint = "/api/chat"

	// maxRequestBody limits chat request bodies.
	maxRequestBody = 1 << 20
)

// ChatService runs chat turns. *chat.Service satisfies it.
type ChatService interface {
	Chat(ctx context.Context, sessionID, message string) (*chat.Response, error)
}

// APIServerConfig configures an APIServer.
type APIServerConfig struct {
	// Chat handles POST /api/chat
	Chat ChatService

	// Sessions backs the session listing and deletion endpoints
	Sessions session.Store

	// MCPServer is served on /mcp when set
	MCPServer *mcpserver.MCPServer

	// Health provides the health endpoints (default: a checker pinging Sessions)
	Health *HealthChecker

	Metrics *instrumentation.Metrics

	// AllowedOrigins for CORS; empty or "*" allows any origin
	AllowedOrigins []string

	// RateLimit is the per-IP request rate for the chat endpoint; 0 disables limiting
	RateLimit float64

	// RateBurst is the per-IP burst (default: 2x RateLimit, at least 1)
	RateBurst int

	// TrustProxy uses X-Forwarded-For and X-Real-IP for the client IP
	TrustProxy bool

	// GenerateSessionIDs assigns a random session ID to chat requests without one
	// instead of the shared default session
	GenerateSessionIDs bool

	Logger *slog.Logger
}

// APIServer serves the chat API, session management, health endpoints,
// and optionally the streamable HTTP MCP transport.
type APIServer struct {
	config      APIServerConfig
	handler     http.Handler
	httpServer  *http.Server
	limiter     *RateLimiter
	mcpSessions *SessionIDManager
	logger      *slog.Logger
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Endpoint string `json:"endpoint,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// NewAPIServer creates an API server.
func NewAPIServer(config APIServerConfig) (*APIServer, error) {
	if config.Chat == nil {
		return nil, fmt.Errorf("chat service is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Health == nil {
		config.Health = NewHealthChecker(nil, config.Sessions)
	}

	s := &APIServer{
		config: config,
		logger: logging.WithComponent(config.Logger, "api"),
	}

	mux := http.NewServeMux()
	config.Health.RegisterHealthEndpoints(mux)

	var chatHandler http.Handler = http.HandlerFunc(s.handleChat)
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = max(1, int(2*config.RateLimit))
		}
		s.limiter = NewRateLimiter(config.RateLimit, burst, config.TrustProxy)
		chatHandler = s.limiter.Middleware(chatHandler)
	}
	mux.Handle("POST "+chatEndpoint, chatHandler)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClearSession)

	if config.MCPServer != nil {
		s.mcpSessions = NewSessionIDManager(config.Logger)
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(config.MCPServer,
			mcpserver.WithEndpointPath("/mcp"),
			mcpserver.WithSessionIdManager(s.mcpSessions),
		))
	}

	s.handler = corsMiddleware(config.AllowedOrigins, instrumentationMiddleware(config.Metrics, mux))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *APIServer) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and serves until Shutdown.
func (s *APIServer) Start(addr string) error {
	return s.StartWithReadySignal(addr, nil)
}

// StartWithReadySignal listens on addr, sends the bound address on ready
// once the listener is open, and serves until Shutdown.
func (s *APIServer) StartWithReadySignal(addr string, ready chan<- net.Addr) error {
	if addr == "" {
		addr = DefaultAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting API server", "addr", l.Addr().String())
	if ready != nil {
		ready <- l.Addr()
	}

	err = s.httpServer.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.mcpSessions != nil {
		s.mcpSessions.Stop()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *APIServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil ||
		strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
		if s.config.GenerateSessionIDs {
			sessionID = uuid.NewString()
		}
	}

	resp, err := s.config.Chat.Chat(r.Context(), sessionID, req.Message)
	if err != nil {
		s.logger.Error("Chat request failed", logging.Session(sessionID), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Endpoint: chatEndpoint})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.config.Sessions.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list sessions", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: ids})
}

func (s *APIServer) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := s.config.Sessions.Clear(r.Context(), id)
	if err != nil {
		s.logger.Error("Failed to clear session", logging.Session(id), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Session not found"})
		return
	}

	s.config.Metrics.DecrementActiveSessions(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Session %s cleared", id)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
