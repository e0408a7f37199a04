package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptState is the failed-login counter for one counter key.
type AttemptState struct {
	Failures    int       `json:"failures"`
	LockedUntil time.Time `json:"locked_until,omitempty"`
}

// Locked reports whether the key is locked at now.
func (s AttemptState) Locked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// AttemptStore persists attempt state per counter key.
type AttemptStore interface {
	Get(ctx context.Context, key string) (AttemptState, error)
	Put(ctx context.Context, key string, state AttemptState) error
	Reset(ctx context.Context, key string) error
}

// MemoryAttemptStore keeps counters in process memory. Counters are lost
// on restart and are not shared between replicas.
type MemoryAttemptStore struct {
	mu     sync.Mutex
	states map[string]AttemptState
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{states: make(map[string]AttemptState)}
}

func (m *MemoryAttemptStore) Get(_ context.Context, key string) (AttemptState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[key], nil
}

func (m *MemoryAttemptStore) Put(_ context.Context, key string, state AttemptState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = state
	return nil
}

func (m *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

const attemptKeyPrefix = "auth:attempts:"

// RedisAttemptStore shares counters between replicas. Entries expire after
// ttl so abandoned usernames do not accumulate.
type RedisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisAttemptStore{client: client, ttl: ttl}
}

func (r *RedisAttemptStore) Get(ctx context.Context, key string) (AttemptState, error) {
	payload, err := r.client.Get(ctx, attemptKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return AttemptState{}, nil
	}
	if err != nil {
		return AttemptState{}, fmt.Errorf("redis get failed: %w", err)
	}

	var state AttemptState
	if err := json.Unmarshal(payload, &state); err != nil {
		return AttemptState{}, fmt.Errorf("decode attempt state: %w", err)
	}
	return state, nil
}

func (r *RedisAttemptStore) Put(ctx context.Context, key string, state AttemptState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode attempt state: %w", err)
	}

	ttl := r.ttl
	if until := time.Until(state.LockedUntil); until > ttl {
		ttl = until
	}
	if err := r.client.Set(ctx, attemptKeyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, attemptKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
