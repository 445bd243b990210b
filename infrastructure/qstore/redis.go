// Package qstore persists agent action-value tables in Redis, one hash
// per snapshot: field "row,col,dir", value a comma-separated list of
// the four action values.
package qstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/sim"
)

var (
	ErrSnapshotNotFound = errors.New("agent snapshot not found")
	ErrEmptySnapshot    = errors.New("refusing to store an empty snapshot")
)

const keyPrefix = "qtable:"

// RedisStore stores Q-table snapshots in Redis with optional TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore initializes a RedisStore with the provided Redis
// client and TTL. A non-positive TTL keeps snapshots forever.
func NewRedisStore(client *redis.Client, ttlSeconds int) (*RedisStore, error) {
	return &RedisStore{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// Save writes the snapshot under the agent id, replacing any previous
// snapshot for that id.
func (s *RedisStore) Save(ctx context.Context, id uuid.UUID, snapshot map[sim.State][]float64) error {
	if len(snapshot) == 0 {
		return ErrEmptySnapshot
	}

	fields := make(map[string]string, len(snapshot))
	for state, values := range snapshot {
		fields[encodeState(state)] = encodeVector(values)
	}

	key := keyPrefix + id.String()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Load reads the snapshot stored under the agent id.
func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (map[sim.State][]float64, error) {
	key := keyPrefix + id.String()
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSnapshotNotFound
	}

	snapshot := make(map[sim.State][]float64, len(fields))
	for field, value := range fields {
		state, err := decodeState(field)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot %s: %w", id, err)
		}
		values, err := decodeVector(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot %s: %w", id, err)
		}
		snapshot[state] = values
	}
	return snapshot, nil
}
