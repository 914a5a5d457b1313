package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/omar-ramo/yawm/internal/cache"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/search"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/pagination"
)

const (
	feedHome     = "home"
	feedPopular  = "popular"
	feedDiscover = "discover"
)

type feedService struct {
	diaries  repository.DiaryRepository
	profiles repository.ProfileRepository
	search   search.Repository
	cache    cache.FeedCache
	images   imageURLs
	sf       singleflight.Group
}

// NewFeedService creates a new FeedService instance. A nil cache disables page caching.
func NewFeedService(
	diaries repository.DiaryRepository,
	profiles repository.ProfileRepository,
	searchRepo search.Repository,
	feedCache cache.FeedCache,
	mediaStore MediaStore,
) FeedService {
	if feedCache == nil {
		feedCache = cache.NoopFeedCache{}
	}
	return &feedService{
		diaries:  diaries,
		profiles: profiles,
		search:   searchRepo,
		cache:    feedCache,
		images:   imageURLs{media: mediaStore},
	}
}

// Home shows the viewer's own diaries and those of the profiles they follow.
// Anonymous viewers get every public diary.
func (s *feedService) Home(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error) {
	filter := repository.DiaryFilter{Viewer: viewer}
	if !viewer.IsAnonymous() {
		filter.HomeOf = viewer.ProfileID
	}
	return s.feed(ctx, feedHome, filter, repository.OrderRecent, page)
}

func (s *feedService) Popular(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error) {
	return s.feed(ctx, feedPopular, repository.DiaryFilter{Viewer: viewer}, repository.OrderPopular, page)
}

func (s *feedService) Discover(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error) {
	return s.feed(ctx, feedDiscover, repository.DiaryFilter{Viewer: viewer}, repository.OrderRecent, page)
}

func (s *feedService) ProfileDiaries(ctx context.Context, viewer domain.Viewer, username string, page int) (*domain.DiaryPage, error) {
	profile, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	filter := repository.DiaryFilter{Viewer: viewer, AuthorID: profile.ID}
	return s.list(ctx, filter, repository.OrderRecent, page)
}

// feed serves anonymous pages through the cache. Concurrent misses for the
// same page share one query.
func (s *feedService) feed(ctx context.Context, name string, filter repository.DiaryFilter, order repository.DiaryOrder, page int) (*domain.DiaryPage, error) {
	if !filter.Viewer.IsAnonymous() {
		return s.list(ctx, filter, order, page)
	}

	l := pkglog.Ctx(ctx)
	key, err := s.cache.BuildKey(ctx, name, page)
	if err != nil {
		l.Warn().Err(err).Msg("cache key error")
		return s.list(ctx, filter, order, page)
	}
	if key == "" {
		return s.list(ctx, filter, order, page)
	}

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Msg("cache get error")
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		resp, err := s.list(ctx, filter, order, page)
		if err != nil {
			return nil, err
		}
		s.asyncCacheSet(key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.DiaryPage), nil
}

func (s *feedService) list(ctx context.Context, filter repository.DiaryFilter, order repository.DiaryOrder, page int) (*domain.DiaryPage, error) {
	l := pkglog.Ctx(ctx)

	count, err := s.diaries.Count(ctx, filter)
	if err != nil {
		l.Error().Err(err).Msg("failed to count diaries")
		return nil, err
	}
	p := pagination.New(page, count, pagination.DiaryPageSize)

	items, err := s.diaries.List(ctx, filter, order, p.Offset(), p.Limit())
	if err != nil {
		l.Error().Err(err).Msg("failed to list diaries")
		return nil, err
	}
	s.images.diaries(items)

	return &domain.DiaryPage{Items: items, Page: p}, nil
}

func (s *feedService) asyncCacheSet(key string, page *domain.DiaryPage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.cache.Set(ctx, key, page); err != nil {
			l := pkglog.L()
			l.Warn().Err(err).Str(pkglog.FieldKey, key).Msg("cache set error")
		}
	}()
}

// Search matches diary titles and profile names in parallel. Both result
// sets read the same page number but are paginated on their own; the
// reported page is the one of the set with more pages.
func (s *feedService) Search(ctx context.Context, viewer domain.Viewer, query string, page int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	result := &domain.SearchResult{Query: query}

	if query == "" {
		result.Diaries = domain.DiaryPage{Items: []domain.Diary{}, Page: pagination.New(page, 0, pagination.DiaryPageSize)}
		result.Profiles = domain.ProfilePage{Items: []domain.ProfileSummary{}, Page: pagination.New(page, 0, pagination.ProfilePageSize)}
		result.Page = result.Diaries.Page
		return result, nil
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.search.CountDiaries(gCtx, viewer, query)
		if err != nil {
			return fmt.Errorf("count diaries: %w", err)
		}
		p := pagination.New(page, count, pagination.DiaryPageSize)
		ids, err := s.search.SearchDiaries(gCtx, viewer, query, p.Offset(), p.Limit())
		if err != nil {
			return fmt.Errorf("search diaries: %w", err)
		}
		items, err := s.diaries.GetByIDs(gCtx, ids)
		if err != nil {
			return err
		}
		s.images.diaries(items)
		result.Diaries = domain.DiaryPage{Items: items, Page: p}
		return nil
	})

	g.Go(func() error {
		count, err := s.search.CountProfiles(gCtx, query)
		if err != nil {
			return fmt.Errorf("count profiles: %w", err)
		}
		p := pagination.New(page, count, pagination.ProfilePageSize)
		ids, err := s.search.SearchProfiles(gCtx, query, p.Offset(), p.Limit())
		if err != nil {
			return fmt.Errorf("search profiles: %w", err)
		}
		items, err := s.profiles.SummariesByIDs(gCtx, ids)
		if err != nil {
			return err
		}
		s.images.profiles(items)
		result.Profiles = domain.ProfilePage{Items: items, Page: p}
		return nil
	})

	if err := g.Wait(); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("search failed")
		return nil, err
	}

	result.Page = result.Diaries.Page
	if result.Profiles.Page.NumPages > result.Diaries.Page.NumPages {
		result.Page = result.Profiles.Page
	}
	result.IsPaginated = result.Diaries.Page.IsPaginated() || result.Profiles.Page.IsPaginated()
	return result, nil
}
