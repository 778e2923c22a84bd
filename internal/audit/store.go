package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/travel-backoffice/internal/cache"
)

const defaultMaxEntries = 200

// MemoryStore keeps audit trails in process, capped per session.
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string][]Entry
}

// NewMemoryStore returns an in-process store keeping at most maxEntries per
// session. A non-positive maxEntries uses the default of 200.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{maxEntries: maxEntries, entries: make(map[string][]Entry)}
}

func (m *MemoryStore) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]Entry{e}, m.entries[e.SessionID]...)
	if len(list) > m.maxEntries {
		list = list[:m.maxEntries]
	}
	m.entries[e.SessionID] = list
	return nil
}

func (m *MemoryStore) List(_ context.Context, sessionID string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[sessionID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]Entry, len(list))
	copy(out, list)
	return out, nil
}

// RedisStore keeps audit trails in capped Redis lists that expire with the
// session they describe.
type RedisStore struct {
	client     redis.UniversalClient
	ttl        time.Duration
	maxEntries int
}

// NewRedisStore returns a Redis-backed store. A non-positive maxEntries uses
// the default of 200.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, maxEntries int) *RedisStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &RedisStore{client: client, ttl: ttl, maxEntries: maxEntries}
}

func (s *RedisStore) Append(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: encode entry: %w", err)
	}
	key := cache.AuditKey(e.SessionID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, payload)
		p.LTrim(ctx, key, 0, int64(s.maxEntries-1))
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.client.LRange(ctx, cache.AuditKey(sessionID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("audit: decode entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
