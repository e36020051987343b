package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type memorySession struct {
	messages   []Message
	lastAccess time.Time
}

// MemoryStore keeps sessions in process memory. Sessions not accessed
// within the TTL are removed by a background cleanup loop.
type MemoryStore struct {
	sessions      map[string]*memorySession
	mu            sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closeOnce     sync.Once
	logger        *slog.Logger
	onExpire      func(id string)
	now           func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithExpireHook calls fn once for every session dropped for idleness,
// whether by the cleanup loop or by a write that replaces it. fn runs
// without the store lock held.
func WithExpireHook(fn func(id string)) MemoryOption {
	return func(s *MemoryStore) {
		s.onExpire = fn
	}
}

// NewMemoryStore creates a MemoryStore and starts its cleanup loop.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger, opts ...MemoryOption) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	interval := 10 * time.Minute
	if ttl < interval {
		interval = ttl
	}

	s := &MemoryStore{
		sessions:      make(map[string]*memorySession),
		ttl:           ttl,
		cleanupTicker: time.NewTicker(interval),
		cleanupDone:   make(chan struct{}),
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, id string) ([]Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, false, nil
	}
	sess.lastAccess = s.now()

	out := make([]Message, len(sess.messages))
	copy(out, sess.messages)
	return out, true, nil
}

// Append implements Store
func (s *MemoryStore) Append(_ context.Context, id string, msgs ...Message) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	replaced := ok && s.expired(sess)
	if !ok || replaced {
		sess = &memorySession{}
		s.sessions[id] = sess
	}
	sess.messages = append(sess.messages, msgs...)
	sess.lastAccess = s.now()
	s.mu.Unlock()

	if replaced {
		s.expire(id)
	}
	return nil
}

// Clear implements Store
func (s *MemoryStore) Clear(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok, nil
}

// List implements Store
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if !s.expired(sess) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping implements Store
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close stops the cleanup loop
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.cleanupTicker.Stop()
		close(s.cleanupDone)
	})
	return nil
}

func (s *MemoryStore) expired(sess *memorySession) bool {
	return s.now().Sub(sess.lastAccess) > s.ttl
}

func (s *MemoryStore) expire(id string) {
	if s.onExpire != nil {
		s.onExpire(id)
	}
}

// removeExpired deletes idle sessions and returns how many were removed.
func (s *MemoryStore) removeExpired() int {
	s.mu.Lock()
	var removed []string
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range removed {
		s.expire(id)
	}
	return len(removed)
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.cleanupTicker.C:
			if n := s.removeExpired(); n > 0 {
				s.logger.Info("Cleaned up expired sessions", "count", n)
			}
		case <-s.cleanupDone:
			return
		}
	}
}
