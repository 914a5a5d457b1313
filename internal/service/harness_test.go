package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/cache"
	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/media"
	"github.com/omar-ramo/yawm/internal/notify"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/search"
	"github.com/omar-ramo/yawm/internal/store"
	"github.com/omar-ramo/yawm/internal/testutil"
	"github.com/omar-ramo/yawm/pkg/storage"
)

type harness struct {
	db      *gorm.DB
	storage storage.Storage
	media   *media.Store

	profiles      *repository.GormProfileRepository
	diaryRepo     *repository.GormDiaryRepository
	engagementRep *repository.GormEngagementRepository
	notifications *repository.GormNotificationRepository

	identity   IdentityService
	diaries    DiaryService
	engagement EngagementService
	feeds      FeedService
	inbox      NotificationService
}

type harnessOptions struct {
	feedCache cache.FeedCache
	counters  store.CounterStore
	token     content.TokenFunc
}

func newHarness(t *testing.T, opts ...func(*harnessOptions)) *harness {
	t.Helper()

	var o harnessOptions
	for _, opt := range opts {
		opt(&o)
	}

	db := testutil.NewDB(t)
	backend, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), PublicURL: "/media"})
	require.NoError(t, err)

	h := &harness{
		db:            db,
		storage:       backend,
		media:         media.NewStore(backend, media.DefaultConfig()),
		profiles:      repository.NewGormProfileRepository(db),
		diaryRepo:     repository.NewGormDiaryRepository(db),
		engagementRep: repository.NewGormEngagementRepository(db),
		notifications: repository.NewGormNotificationRepository(db),
	}

	sanitizer := content.NewSanitizer()
	emitter := notify.NewDispatcher(notify.NewStoreSink(h.notifications))
	follows := repository.NewGormFollowRepository(db)

	h.identity = NewIdentityService(h.profiles, follows, h.media, emitter)
	h.diaries = NewDiaryService(h.diaryRepo, h.engagementRep, sanitizer, h.media, o.feedCache, o.token)
	h.engagement = NewEngagementService(h.diaryRepo, h.engagementRep, sanitizer, emitter, o.counters, h.media)
	h.feeds = NewFeedService(h.diaryRepo, h.profiles, search.NewSQLRepository(db, h.diaryRepo), o.feedCache, h.media)
	h.inbox = NewNotificationService(h.notifications, h.media)
	return h
}

func viewerOf(p *domain.Profile) domain.Viewer {
	return domain.Viewer{ProfileID: p.ID, Username: p.Username}
}

func (h *harness) profile(t *testing.T, username string) (*domain.Profile, domain.Viewer) {
	t.Helper()
	p := testutil.Profile(t, h.db, username)
	return p, viewerOf(p)
}

func (h *harness) create(t *testing.T, viewer domain.Viewer, title string, mutate ...func(*domain.CreateDiaryRequest)) *domain.Diary {
	t.Helper()
	req := &domain.CreateDiaryRequest{Title: title, Content: "<p>" + title + "</p>"}
	for _, m := range mutate {
		m(req)
	}
	d, err := h.diaries.Create(testCtx(), viewer, req, nil)
	require.NoError(t, err)
	return d
}
