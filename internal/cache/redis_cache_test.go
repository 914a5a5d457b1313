package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/pkg/pagination"
)

func newCache(t *testing.T) (*RedisFeedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFeedCache(client, "yawm:feed", time.Minute), mr
}

func TestRedisFeedCache_RoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "popular", 2)
	require.NoError(t, err)

	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	page := &domain.DiaryPage{
		Items: []domain.Diary{{ID: "d1", Title: "hello", Slug: "hello"}},
		Page:  pagination.New(2, 10, 9),
	}
	require.NoError(t, c.Set(ctx, key, page))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Items[0].Title)
	assert.Equal(t, 2, got.Page.Number)

	ttl := mr.TTL(key)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisFeedCache_KeysDifferPerFeedAndPage(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	k1, err := c.BuildKey(ctx, "home", 1)
	require.NoError(t, err)
	k2, err := c.BuildKey(ctx, "home", 2)
	require.NoError(t, err)
	k3, err := c.BuildKey(ctx, "discover", 1)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	again, err := c.BuildKey(ctx, "home", 1)
	require.NoError(t, err)
	assert.Equal(t, k1, again)
}

func TestRedisFeedCache_Invalidate(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "home", 1)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, before, &domain.DiaryPage{}))

	require.NoError(t, c.Invalidate(ctx))

	after, err := c.BuildKey(ctx, "home", 1)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, err = c.Get(ctx, after)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
