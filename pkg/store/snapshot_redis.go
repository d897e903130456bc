package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKey = "readkeeper:state"

// RedisSnapshotStore persists the projection as one JSON value under a
// fixed Redis key.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore connects to Redis. An empty key falls back to the
// default slot name.
func NewRedisSnapshotStore(addr, password, key string) *RedisSnapshotStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultSnapshotKey
	}
	return &RedisSnapshotStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key: key,
	}
}

// Save serializes and overwrites the projection slot.
func (s *RedisSnapshotStore) Save(ctx context.Context, p Projection) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: marshal projection: %w", ErrSnapshotWrite, err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrSnapshotWrite, s.key, err)
	}
	return nil
}

// Load reads and parses the projection slot.
func (s *RedisSnapshotStore) Load(ctx context.Context) (Projection, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Projection{}, false, nil
		}
		return Projection{}, false, fmt.Errorf("get %s: %w", s.key, err)
	}
	var p Projection
	if err := json.Unmarshal(data, &p); err != nil {
		return Projection{}, false, fmt.Errorf("parse projection: %w", err)
	}
	return p, true, nil
}
