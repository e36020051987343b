package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultTTL is how long an idle session is kept by the expiring backends.
const DefaultTTL = 24 * time.Hour

// ToolCall is a function call requested by the assistant.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Store persists conversation histories keyed by session ID.
type Store interface {
	// Get returns the messages of a session in order and whether it exists
	Get(ctx context.Context, id string) ([]Message, bool, error)

	// Append adds messages to the end of a session, creating it if needed
	Append(ctx context.Context, id string, msgs ...Message) error

	// Clear removes a session and reports whether it existed
	Clear(ctx context.Context, id string) (bool, error)

	// List returns the IDs of all stored sessions
	List(ctx context.Context) ([]string, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}

// Backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown session backend")

// Config selects and configures a Store backend.
type Config struct {
	// Backend is one of memory, redis, or postgres (default: memory)
	Backend string

	// RedisAddr is the host:port of the Redis server
	RedisAddr string

	// RedisPassword is optional
	RedisPassword string

	// DatabaseURL is the Postgres connection string
	DatabaseURL string

	// TTL expires idle sessions in the memory and redis backends (default: DefaultTTL)
	TTL time.Duration

	// SkipMigrations leaves the Postgres schema untouched on Open
	SkipMigrations bool

	// OnExpire is called for each session the memory backend drops for
	// idleness. Redis expires keys on its own and never calls it.
	OnExpire func(id string)
}

// Open creates the Store described by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Backend {
	case "", BackendMemory:
		var opts []MemoryOption
		if cfg.OnExpire != nil {
			opts = append(opts, WithExpireHook(cfg.OnExpire))
		}
		return NewMemoryStore(ttl, logger, opts...), nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis session backend requires an address")
		}
		store := NewRedisStoreFromAddr(cfg.RedisAddr, cfg.RedisPassword, ttl)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return store, nil

	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres session backend requires a database URL")
		}
		return OpenPostgresStore(ctx, cfg.DatabaseURL, !cfg.SkipMigrations, logger)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
