package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/cache"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/testutil"
)

func titles(items []domain.Diary) []string {
	out := make([]string, len(items))
	for i, d := range items {
		out[i] = d.Title
	}
	return out
}

func TestFeedService_HomeShowsFollowedAndOwn(t *testing.T) {
	h := newHarness(t)
	viewerProfile, viewer := h.profile(t, "viewer")
	a, _ := h.profile(t, "a")
	b, _ := h.profile(t, "b")
	testutil.Follow(t, h.db, viewerProfile, a)

	base := time.Now().Add(-time.Hour)
	testutil.Diary(t, h.db, viewerProfile, "mine", testutil.CreatedAt(base))
	testutil.Diary(t, h.db, a, "from a", testutil.CreatedAt(base.Add(time.Minute)))
	testutil.Diary(t, h.db, a, "a private", testutil.Private(), testutil.CreatedAt(base.Add(2*time.Minute)))
	testutil.Diary(t, h.db, b, "from b", testutil.CreatedAt(base.Add(3*time.Minute)))
	testutil.Diary(t, h.db, viewerProfile, "my private", testutil.Private(), testutil.CreatedAt(base.Add(4*time.Minute)))

	page, err := h.feeds.Home(testCtx(), viewer, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"my private", "from a", "mine"}, titles(page.Items))

	anon, err := h.feeds.Home(testCtx(), domain.Anonymous, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"from b", "from a", "mine"}, titles(anon.Items))
}

func TestFeedService_PopularRanksByEngagement(t *testing.T) {
	h := newHarness(t)
	author, _ := h.profile(t, "ann")

	testutil.Diary(t, h.db, author, "five", testutil.Counts(3, 2))
	testutil.Diary(t, h.db, author, "two", testutil.Counts(2, 0))
	testutil.Diary(t, h.db, author, "eight", testutil.Counts(4, 4))
	testutil.Diary(t, h.db, author, "hidden", testutil.Counts(50, 50), testutil.Private())

	page, err := h.feeds.Popular(testCtx(), domain.Anonymous, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"eight", "five", "two"}, titles(page.Items))
}

func TestFeedService_DiscoverPaginates(t *testing.T) {
	h := newHarness(t)
	author, _ := h.profile(t, "ann")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		testutil.Diary(t, h.db, author, "entry", testutil.CreatedAt(base.Add(time.Duration(i)*time.Second)))
	}

	seen := map[string]bool{}
	sizes := []int{}
	for n := 1; n <= 3; n++ {
		page, err := h.feeds.Discover(testCtx(), domain.Anonymous, n)
		require.NoError(t, err)
		assert.Equal(t, n, page.Page.Number)
		assert.Equal(t, 3, page.Page.NumPages)
		sizes = append(sizes, len(page.Items))
		for _, d := range page.Items {
			assert.False(t, seen[d.ID], "duplicate %s", d.ID)
			seen[d.ID] = true
		}
	}
	assert.Equal(t, []int{9, 9, 2}, sizes)
	assert.Len(t, seen, 20)

	last, err := h.feeds.Discover(testCtx(), domain.Anonymous, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, last.Page.Number)

	clamped, err := h.feeds.Discover(testCtx(), domain.Anonymous, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, clamped.Page.Number)
}

func TestFeedService_EmptyFeedHasOnePage(t *testing.T) {
	h := newHarness(t)

	page, err := h.feeds.Discover(testCtx(), domain.Anonymous, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Page.Number)
	assert.Equal(t, 1, page.Page.NumPages)
	assert.Equal(t, []int{1}, page.Page.Links)
}

func TestFeedService_ProfileDiaries(t *testing.T) {
	h := newHarness(t)
	ann, annViewer := h.profile(t, "ann")
	bob, _ := h.profile(t, "bob")
	testutil.Diary(t, h.db, ann, "public")
	testutil.Diary(t, h.db, ann, "private", testutil.Private())
	testutil.Diary(t, h.db, bob, "bob's")

	page, err := h.feeds.ProfileDiaries(testCtx(), domain.Anonymous, "ann", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, titles(page.Items))

	own, err := h.feeds.ProfileDiaries(testCtx(), annViewer, "ann", 1)
	require.NoError(t, err)
	assert.Len(t, own.Items, 2)

	_, err = h.feeds.ProfileDiaries(testCtx(), domain.Anonymous, "nobody", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedService_Search(t *testing.T) {
	h := newHarness(t)
	ann, annViewer := h.profile(t, "ann")
	h.profile(t, "garden_fan")
	testutil.Diary(t, h.db, ann, "My Garden")
	testutil.Diary(t, h.db, ann, "garden secrets", testutil.Private())
	testutil.Diary(t, h.db, ann, "Kitchen")
	testutil.Diary(t, h.db, ann, "100% garden")

	res, err := h.feeds.Search(testCtx(), domain.Anonymous, "GARDEN", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"My Garden", "100% garden"}, titles(res.Diaries.Items))
	require.Len(t, res.Profiles.Items, 1)
	assert.Equal(t, "garden_fan", res.Profiles.Items[0].Username)
	assert.False(t, res.IsPaginated)

	own, err := h.feeds.Search(testCtx(), annViewer, "garden", 1)
	require.NoError(t, err)
	assert.Len(t, own.Diaries.Items, 3)

	escaped, err := h.feeds.Search(testCtx(), domain.Anonymous, "100%", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% garden"}, titles(escaped.Diaries.Items))

	empty, err := h.feeds.Search(testCtx(), domain.Anonymous, "  ", 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Diaries.Items)
	assert.Empty(t, empty.Profiles.Items)
}

func TestFeedService_SearchPagesIndependently(t *testing.T) {
	h := newHarness(t)
	author, _ := h.profile(t, "writer")
	for i := 0; i < 20; i++ {
		testutil.Diary(t, h.db, author, "note")
	}

	res, err := h.feeds.Search(testCtx(), domain.Anonymous, "note", 3)
	require.NoError(t, err)
	assert.Len(t, res.Diaries.Items, 2)
	assert.Equal(t, 3, res.Page.Number)
	assert.Equal(t, 3, res.Page.NumPages)
	assert.Equal(t, 1, res.Profiles.Page.NumPages)
	assert.True(t, res.IsPaginated)
}

func TestFeedService_CachesAnonymousPages(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	feedCache := cache.NewRedisFeedCache(client, "yawm:feed", time.Minute)

	h := newHarness(t, func(o *harnessOptions) { o.feedCache = feedCache })
	author, ann := h.profile(t, "ann")
	testutil.Diary(t, h.db, author, "first")

	page, err := h.feeds.Discover(testCtx(), domain.Anonymous, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	key, err := feedCache.BuildKey(context.Background(), feedDiscover, 1)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := feedCache.Get(context.Background(), key)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	// Written behind the service's back, so the cached page is still served.
	testutil.Diary(t, h.db, author, "sneaky")
	page, err = h.feeds.Discover(testCtx(), domain.Anonymous, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	// Signed-in viewers bypass the cache.
	page, err = h.feeds.Discover(testCtx(), ann, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	h.create(t, ann, "third")
	page, err = h.feeds.Discover(testCtx(), domain.Anonymous, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
}
