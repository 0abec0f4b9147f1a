package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockConfig configures a Store: the TTL each SETNX carries and the prefix
// used to namespace the generated per-acquisition lock value.
type LockConfig struct {
	TTL         time.Duration
	ValuePrefix string
}

// Store implements ports.LockStore over Redis SETNX plus a value-checked
// Lua release, adapted from the teacher's DistributedLock/LockManager: the
// same SETNX/Lua-release mechanics, generalized to the acquire(key) bool /
// release(key) port shape instead of a bespoke lock-object API, and
// tracking one generated value per currently-held key so Release only
// deletes a key this process actually holds.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]string
}

// NewStore builds a Store from the same LockConfig shape the teacher's
// DistributedLock takes.
func NewStore(client *redis.Client, cfg *LockConfig, logger *slog.Logger) *Store {
	if cfg == nil {
		cfg = &LockConfig{TTL: 30 * time.Second, ValuePrefix: "lock"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		redis:  client,
		ttl:    cfg.TTL,
		prefix: cfg.ValuePrefix,
		logger: logger,
		values: make(map[string]string),
	}
}

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Acquire attempts a single SETNX for key; the caller (Workflow) owns
// retry/backoff per §4.9, so Acquire itself never blocks.
func (s *Store) Acquire(ctx context.Context, key string) (bool, error) {
	value := generateLockValue(s.prefix)

	ok, err := s.redis.SetNX(ctx, key, value, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.logger.Debug("lock acquired", "key", key, "ttl", s.ttl)
	return true, nil
}

// Release deletes key only if it still holds the value this process set,
// then forgets the tracked value regardless of outcome (idempotent on
// every exit path per §4.9).
func (s *Store) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	value, ok := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("releasing lock not held by this process", "key", key)
		return nil
	}

	result, err := s.redis.Eval(ctx, releaseScript, []string{key}, value).Result()
	if err != nil {
		return fmt.Errorf("releasing lock %s: %w", key, err)
	}
	if n, ok := result.(int64); ok && n == 1 {
		s.logger.Debug("lock released", "key", key)
	} else {
		s.logger.Warn("lock already expired or held by another process", "key", key)
	}
	return nil
}

func generateLockValue(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}
