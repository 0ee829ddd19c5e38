// Package flash stores one-shot messages that the next page render reads and clears.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Kind classifies a flash message
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Flash is a single read-once message
type Flash struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Store keeps flashes per session id. Pop returns and clears them.
type Store interface {
	Put(ctx context.Context, sessionID string, f Flash) error
	Pop(ctx context.Context, sessionID string) ([]Flash, error)
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]Flash
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]Flash)}
}

// Put appends a flash for the session
func (s *MemoryStore) Put(_ context.Context, sessionID string, f Flash) error {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionID] = append(s.items[sessionID], f)
	return nil
}

// Pop returns the pending flashes and forgets them
func (s *MemoryStore) Pop(_ context.Context, sessionID string) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.items[sessionID]
	delete(s.items, sessionID)
	return out, nil
}

// RedisStore keeps flashes in a Redis list per session
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. Lists expire after ttl if never read.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "flash"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Put appends a flash for the session
func (s *RedisStore) Put(ctx context.Context, sessionID string, f Flash) error {
	if sessionID == "" {
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("flash marshal: %w", err)
	}
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flash put: %w", err)
	}
	return nil
}

// Pop reads and deletes the list in one MULTI block
func (s *RedisStore) Pop(ctx context.Context, sessionID string) ([]Flash, error) {
	if sessionID == "" {
		return nil, nil
	}
	key := s.key(sessionID)
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}

	raw, err := rangeCmd.Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}
	out := make([]Flash, 0, len(raw))
	for _, item := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
