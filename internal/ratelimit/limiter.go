package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of counting one request against a key.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fixed is a fixed-window limiter on top of ulule/limiter. The store decides
// whether counters are local to the process or shared through Redis.
type Fixed struct {
	l *limiter.Limiter
}

// NewMemory builds a process-local limiter allowing max requests per period.
func NewMemory(max int64, period time.Duration, prefix string) *Fixed {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})
	return &Fixed{l: limiter.New(store, limiter.Rate{Period: period, Limit: max})}
}

// NewRedis builds a limiter whose counters are shared by every replica.
func NewRedis(client redis.UniversalClient, max int64, period time.Duration, prefix string) (*Fixed, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return &Fixed{l: limiter.New(store, limiter.Rate{Period: period, Limit: max})}, nil
}

// Allow counts one request for key.
func (f *Fixed) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := f.l.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		Reset:     time.Unix(res.Reset, 0),
	}, nil
}
