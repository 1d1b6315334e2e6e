package dialer

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dialdesk/pkg/utils"
)

// SlotLimiter caps how many dials an agent may have in flight at once.
type SlotLimiter interface {
	Acquire(ctx context.Context, agentID string) (bool, error)
	Release(ctx context.Context, agentID string) error
}

// slotTTL bounds how long a leaked slot survives a crashed process.
const slotTTL = 10 * time.Minute

// RedisSlotLimiter counts in-flight dials per agent in Redis, so the cap
// holds across API replicas.
type RedisSlotLimiter struct {
	rdb   *redis.Client
	limit int
}

func NewRedisSlotLimiter(rdb *redis.Client, limit int) *RedisSlotLimiter {
	return &RedisSlotLimiter{rdb: rdb, limit: limit}
}

func (l *RedisSlotLimiter) key(agentID string) string {
	return "dial:agent:" + agentID
}

func (l *RedisSlotLimiter) Acquire(ctx context.Context, agentID string) (bool, error) {
	return utils.AcquireDialSlot(ctx, l.rdb, l.key(agentID), l.limit, slotTTL)
}

func (l *RedisSlotLimiter) Release(ctx context.Context, agentID string) error {
	return utils.ReleaseDialSlot(ctx, l.rdb, l.key(agentID))
}

// MemorySlotLimiter is a single-process limiter for tests and local runs
// without Redis.
type MemorySlotLimiter struct {
	limit int

	mu     sync.Mutex
	counts map[string]int
}

func NewMemorySlotLimiter(limit int) *MemorySlotLimiter {
	return &MemorySlotLimiter{limit: limit, counts: map[string]int{}}
}

func (l *MemorySlotLimiter) Acquire(_ context.Context, agentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[agentID] >= l.limit {
		return false, nil
	}
	l.counts[agentID]++
	return true, nil
}

func (l *MemorySlotLimiter) Release(_ context.Context, agentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[agentID] > 0 {
		l.counts[agentID]--
	}
	return nil
}

func (l *MemorySlotLimiter) InFlight(agentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[agentID]
}
