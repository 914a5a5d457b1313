package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/testutil"
)

func titles(diaries []domain.Diary) []string {
	out := make([]string, len(diaries))
	for i, d := range diaries {
		out[i] = d.Title
	}
	return out
}

func TestDiaryRepository_HomeFeed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	viewer := testutil.Profile(t, db, "viewer")
	a := testutil.Profile(t, db, "alice")
	b := testutil.Profile(t, db, "bob")
	testutil.Follow(t, db, viewer, a)

	testutil.Diary(t, db, viewer, "mine")
	testutil.Diary(t, db, viewer, "mine private", testutil.Private())
	testutil.Diary(t, db, a, "alice public")
	testutil.Diary(t, db, a, "alice private", testutil.Private())
	testutil.Diary(t, db, b, "bob public")

	filter := DiaryFilter{Viewer: domain.Viewer{ProfileID: viewer.ID}, HomeOf: viewer.ID}
	got, err := repo.List(ctx, filter, OrderRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice public", "mine private", "mine"}, titles(got))

	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestDiaryRepository_VisibilityForAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	testutil.Diary(t, db, a, "public")
	testutil.Diary(t, db, a, "private", testutil.Private())

	got, err := repo.List(ctx, DiaryFilter{Viewer: domain.Anonymous}, OrderRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, titles(got))

	got, err = repo.List(ctx, DiaryFilter{Viewer: domain.Viewer{ProfileID: a.ID}, AuthorID: a.ID}, OrderRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"private", "public"}, titles(got))
}

func TestDiaryRepository_PopularOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	base := time.Now().UTC().Add(-time.Hour)
	testutil.Diary(t, db, a, "two", testutil.Counts(1, 1), testutil.CreatedAt(base))
	testutil.Diary(t, db, a, "eight", testutil.Counts(5, 3), testutil.CreatedAt(base.Add(time.Minute)))
	testutil.Diary(t, db, a, "five", testutil.Counts(0, 5), testutil.CreatedAt(base.Add(2*time.Minute)))
	testutil.Diary(t, db, a, "five newer", testutil.Counts(5, 0), testutil.CreatedAt(base.Add(3*time.Minute)))

	got, err := repo.List(ctx, DiaryFilter{Viewer: domain.Anonymous}, OrderPopular, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"eight", "five newer", "five", "two"}, titles(got))
}

func TestDiaryRepository_PagesDoNotOverlap(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	for i := 0; i < 20; i++ {
		testutil.Diary(t, db, a, "entry")
	}

	filter := DiaryFilter{Viewer: domain.Anonymous}
	seen := map[string]bool{}
	var sizes []int
	for page := 0; page < 3; page++ {
		ids, err := repo.ListIDs(ctx, filter, OrderRecent, page*9, 9)
		require.NoError(t, err)
		sizes = append(sizes, len(ids))
		for _, id := range ids {
			assert.False(t, seen[id])
			seen[id] = true
		}
	}
	assert.Equal(t, []int{9, 9, 2}, sizes)
	assert.Len(t, seen, 20)
}

func TestDiaryRepository_TitleContains(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	testutil.Diary(t, db, a, "Summer Trip")
	testutil.Diary(t, db, a, "100% done")
	testutil.Diary(t, db, a, "1000 days")
	testutil.Diary(t, db, a, "secret summer", testutil.Private())

	got, err := repo.List(ctx, DiaryFilter{Viewer: domain.Anonymous, TitleContains: "SUMMER"}, OrderRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer Trip"}, titles(got))

	got, err = repo.List(ctx, DiaryFilter{Viewer: domain.Anonymous, TitleContains: "0%"}, OrderRecent, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% done"}, titles(got))
}

func TestDiaryRepository_SlugReservedAfterDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	d := testutil.Diary(t, db, a, "gone")
	require.NoError(t, repo.Delete(ctx, d.ID))

	exists, err := repo.SlugExists(ctx, d.Slug)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetBySlug(ctx, d.Slug)
	assert.ErrorIs(t, err, ErrDiaryNotFound)

	err = repo.Create(ctx, &domain.Diary{Title: "again", Slug: d.Slug, Content: "x", AuthorID: a.ID})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestDiaryRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)
	engagement := NewGormEngagementRepository(db)
	ctx := context.Background()

	a := testutil.Profile(t, db, "alice")
	b := testutil.Profile(t, db, "bob")
	d := testutil.Diary(t, db, a, "doomed")
	other := testutil.Diary(t, db, a, "survivor")

	comment := &domain.Comment{Content: "hi", ContentHTML: "hi", AuthorID: b.ID, DiaryID: d.ID}
	require.NoError(t, engagement.AddComment(ctx, comment))
	_, err := engagement.ToggleCommentLike(ctx, a.ID, comment.ID)
	require.NoError(t, err)
	_, err = engagement.ToggleDiaryLike(ctx, b.ID, d.ID)
	require.NoError(t, err)
	_, err = engagement.ToggleDiaryLike(ctx, b.ID, other.ID)
	require.NoError(t, err)

	diaryID := d.ID
	require.NoError(t, db.Create(&domain.Notification{
		RecipientID: a.ID, ActorID: b.ID, Verb: domain.VerbLiked,
		TargetType: domain.TargetDiary, TargetID: d.ID, DiaryID: &diaryID, Unread: true,
	}).Error)

	require.NoError(t, repo.Delete(ctx, d.ID))

	count := func(model interface{}, where string, args ...interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&domain.Comment{}, "diary_id = ?", d.ID))
	assert.Zero(t, count(&domain.CommentLike{}, "comment_id = ?", comment.ID))
	assert.Zero(t, count(&domain.DiaryLike{}, "diary_id = ?", d.ID))
	assert.Zero(t, count(&domain.Notification{}, "diary_id = ?", d.ID))
	assert.EqualValues(t, 1, count(&domain.DiaryLike{}, "diary_id = ?", other.ID))

	_, err = repo.GetBySlug(ctx, d.Slug)
	assert.ErrorIs(t, err, ErrDiaryNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, d.ID), ErrDiaryNotFound)
}

func TestDiaryRepository_GetByIDsKeepsOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormDiaryRepository(db)

	a := testutil.Profile(t, db, "alice")
	d1 := testutil.Diary(t, db, a, "one")
	d2 := testutil.Diary(t, db, a, "two")

	got, err := repo.GetByIDs(context.Background(), []string{d2.ID, "missing", d1.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "one"}, titles(got))
	require.NotNil(t, got[0].Author)
	assert.Equal(t, "alice", got[0].Author.Username)
}
