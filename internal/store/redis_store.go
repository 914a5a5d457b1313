package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Kind names a denormalized counter owner.
type Kind string

const (
	KindDiary   Kind = "diary"
	KindComment Kind = "comment"
)

const dirtyKeyPrefix = "yawm:dirty:"

// CounterStore tracks rows whose counters changed since the last reconciliation.
type CounterStore interface {
	MarkDirty(ctx context.Context, kind Kind, ids ...string) error
	// PopDirty removes and returns up to n ids of kind.
	PopDirty(ctx context.Context, kind Kind, n int64) ([]string, error)
	Close() error
}

// RedisCounterStore keeps one Redis set of dirty ids per kind.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a counter store on a shared client. Close leaves the client open.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func dirtyKey(kind Kind) string {
	return dirtyKeyPrefix + string(kind)
}

// MarkDirty adds ids to the dirty set of kind.
func (s *RedisCounterStore) MarkDirty(ctx context.Context, kind Kind, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, dirtyKey(kind), members...).Err(); err != nil {
		return fmt.Errorf("redis mark dirty %s: %w", kind, err)
	}
	return nil
}

// PopDirty atomically removes up to n ids from the dirty set.
func (s *RedisCounterStore) PopDirty(ctx context.Context, kind Kind, n int64) ([]string, error) {
	ids, err := s.client.SPopN(ctx, dirtyKey(kind), n).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pop dirty %s: %w", kind, err)
	}
	return ids, nil
}

func (s *RedisCounterStore) Close() error { return nil }

var _ CounterStore = (*RedisCounterStore)(nil)

// NoopCounterStore drops every mark. It is used when Redis is not configured.
type NoopCounterStore struct{}

func (NoopCounterStore) MarkDirty(context.Context, Kind, ...string) error { return nil }

func (NoopCounterStore) PopDirty(context.Context, Kind, int64) ([]string, error) { return nil, nil }

func (NoopCounterStore) Close() error { return nil }

var _ CounterStore = NoopCounterStore{}
