package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key the snapshot is stored under unless overridden.
const DefaultRedisKey = "argen:credit_ledger"

// RedisStore persists the ledger snapshot as a JSON value in Redis. The
// Ledger serializes all mutations, so plain GET/SET is sufficient for a
// single process; multiple processes must share one Ledger instance per key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed ledger store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the snapshot, returning ErrNotInitialized when the key is absent.
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read ledger key: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse ledger value: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot. No TTL: the ledger never expires.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write ledger key: %w", err)
	}
	return nil
}
