package cache

import (
	"context"
	"errors"

	"github.com/omar-ramo/yawm/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// FeedCache caches rendered anonymous feed pages. Keys embed a generation
// number so one Invalidate call retires every cached page.
type FeedCache interface {
	BuildKey(ctx context.Context, feed string, page int) (string, error)
	Get(ctx context.Context, key string) (*domain.DiaryPage, error)
	Set(ctx context.Context, key string, page *domain.DiaryPage) error
	Invalidate(ctx context.Context) error
}
