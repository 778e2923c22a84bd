package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/travel-backoffice/internal/cache"
	"github.com/noah-isme/travel-backoffice/internal/lock"
)

// Store persists sessions. Mutate applies fn to the latest copy of a session
// while no other mutation of the same id runs, then saves the result.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Mutate(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process. Idle sessions expire after ttl.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session  *Session
	expireAt time.Time
}

// NewMemoryStore constructs an in-process store. A non-positive ttl never expires sessions.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.putLocked(s)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.lookupLocked(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.clone(), nil
}

func (m *MemoryStore) Mutate(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.lookupLocked(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	working := s.clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	m.putLocked(working)
	return working.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookupLocked(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.sessions)
}

func (m *MemoryStore) putLocked(s *Session) {
	entry := memoryEntry{session: s.clone()}
	if m.ttl > 0 {
		entry.expireAt = m.now().Add(m.ttl)
	}
	m.sessions[s.ID] = entry
}

func (m *MemoryStore) lookupLocked(id string) (*Session, bool) {
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.expired(entry) {
		delete(m.sessions, id)
		return nil, false
	}
	return entry.session, true
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expireAt.IsZero() && !m.now().Before(e.expireAt)
}

func (m *MemoryStore) sweepLocked() {
	for id, entry := range m.sessions {
		if m.expired(entry) {
			delete(m.sessions, id)
		}
	}
}

// RedisStore keeps sessions as JSON in Redis so any API replica can serve
// them. Mutations are serialised with a per-session lock.
type RedisStore struct {
	data    *cache.JSON
	locker  lock.Locker
	lockTTL time.Duration
}

// NewRedisStore constructs a Redis-backed store. Every write refreshes ttl.
func NewRedisStore(client redis.UniversalClient, ttl, lockTTL time.Duration) *RedisStore {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &RedisStore{
		data:    cache.NewJSON(client, ttl),
		locker:  lock.Locker{R: client, MaxWait: lockTTL},
		lockTTL: lockTTL,
	}
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	if err := r.data.Set(ctx, cache.SessionKey(s.ID), s); err != nil {
		return fmt.Errorf("session: save %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.data.Get(ctx, cache.SessionKey(id), &s)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &s, nil
}

func (r *RedisStore) Mutate(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var out *Session
	err := r.locker.WithLock(ctx, cache.SessionLockKey(id), r.lockTTL, func(ctx context.Context) error {
		s, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		if err := r.Create(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := r.data.Delete(ctx, cache.SessionKey(id))
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
