package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// DefaultMCPSessionTimeout is how long an idle MCP session stays valid.
const DefaultMCPSessionTimeout = 24 * time.Hour

// ErrUnknownSession is returned when a session ID was never issued or has expired.
var ErrUnknownSession = errors.New("unknown session")

var _ mcpserver.SessionIdManager = (*SessionIDManager)(nil)

// sessionInfo tracks session metadata for cleanup
type sessionInfo struct {
	lastAccess time.Time
	terminated bool
}

// SessionIDManager issues and tracks session IDs for the streamable HTTP
// MCP transport. IDs are random UUIDs; idle sessions expire after the
// configured timeout.
type SessionIDManager struct {
	sessions       map[string]*sessionInfo
	mu             sync.Mutex
	cleanupTicker  *time.Ticker
	cleanupDone    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewSessionIDManager creates a session ID manager with the default timeout
func NewSessionIDManager(logger *slog.Logger) *SessionIDManager {
	return NewSessionIDManagerWithTimeout(DefaultMCPSessionTimeout, logger)
}

// NewSessionIDManagerWithTimeout creates a session ID manager with a custom timeout
func NewSessionIDManagerWithTimeout(timeout time.Duration, logger *slog.Logger) *SessionIDManager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &SessionIDManager{
		sessions:       make(map[string]*sessionInfo),
		cleanupTicker:  time.NewTicker(min(10*time.Minute, timeout)),
		cleanupDone:    make(chan struct{}),
		sessionTimeout: timeout,
		now:            time.Now,
		logger:         logger,
	}

	go m.cleanupExpiredSessions()

	return m
}

// Generate issues a new session ID.
func (m *SessionIDManager) Generate() string {
	id := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &sessionInfo{lastAccess: m.now()}
	return id
}

// Validate reports whether sessionID was terminated, or an error if it is unknown.
func (m *SessionIDManager) Validate(sessionID string) (bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[sessionID]
	if !ok || m.expired(info) {
		return false, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if info.terminated {
		return true, nil
	}
	info.lastAccess = m.now()
	return false, nil
}

// Terminate marks a session as terminated. Clients are always allowed to
// terminate their own sessions.
func (m *SessionIDManager) Terminate(sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.sessions[sessionID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	info.terminated = true
	return false, nil
}

// ListSessions returns all live session IDs
func (m *SessionIDManager) ListSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]string, 0, len(m.sessions))
	for sessionID, info := range m.sessions {
		if !info.terminated && !m.expired(info) {
			sessions = append(sessions, sessionID)
		}
	}
	return sessions
}

func (m *SessionIDManager) expired(info *sessionInfo) bool {
	return m.now().Sub(info.lastAccess) > m.sessionTimeout
}

// removeExpired drops expired and terminated sessions and returns how many were removed
func (m *SessionIDManager) removeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for sessionID, info := range m.sessions {
		if info.terminated || m.expired(info) {
			delete(m.sessions, sessionID)
			removed++
		}
	}
	return removed
}

// cleanupExpiredSessions periodically removes expired sessions
func (m *SessionIDManager) cleanupExpiredSessions() {
	for {
		select {
		case <-m.cleanupTicker.C:
			if n := m.removeExpired(); n > 0 {
				m.logger.Info("Cleaned up expired MCP sessions", "count", n)
			}
		case <-m.cleanupDone:
			return
		}
	}
}

// Stop stops the session cleanup goroutine
func (m *SessionIDManager) Stop() {
	m.stopOnce.Do(func() {
		m.cleanupTicker.Stop()
		close(m.cleanupDone)
	})
}
