package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/omar-ramo/yawm/internal/domain"
)

type RedisFeedCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ FeedCache = (*RedisFeedCache)(nil)

// NewRedisFeedCache creates a feed cache on a shared client. ttl bounds how
// stale like and comment counts on a cached page can get.
func NewRedisFeedCache(client *redis.Client, prefix string, ttl time.Duration) *RedisFeedCache {
	return &RedisFeedCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisFeedCache) generationKey() string {
	return c.prefix + ":gen"
}

// BuildKey returns the key of a feed page under the current generation.
func (c *RedisFeedCache) BuildKey(ctx context.Context, feed string, page int) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}

	sum := blake2b.Sum256([]byte(feed + "\x00" + strconv.Itoa(page)))
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, hex.EncodeToString(sum[:12])), nil
}

func (c *RedisFeedCache) Get(ctx context.Context, key string) (*domain.DiaryPage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page domain.DiaryPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &page, nil
}

func (c *RedisFeedCache) Set(ctx context.Context, key string, page *domain.DiaryPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Invalidate moves to a new generation. Pages of older generations expire on their own.
func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// NoopFeedCache never stores anything.
type NoopFeedCache struct{}

var _ FeedCache = NoopFeedCache{}

func (NoopFeedCache) BuildKey(context.Context, string, int) (string, error) { return "", nil }

func (NoopFeedCache) Get(context.Context, string) (*domain.DiaryPage, error) {
	return nil, ErrCacheMiss
}

func (NoopFeedCache) Set(context.Context, string, *domain.DiaryPage) error { return nil }

func (NoopFeedCache) Invalidate(context.Context) error { return nil }
