package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/testutil"
)

func testCtx() context.Context {
	return context.Background()
}

var suffixed = regexp.MustCompile(`^hello-world-[A-Za-z0-9_-]{10}$`)

func pngUpload(t *testing.T, name string) *Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 20))))
	return &Upload{Filename: name, Body: &buf}
}

func TestDiaryService_CreateDerivesSlugAndDescription(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{
		Title:   "Hello World",
		Content: `<p>test <i>cont<span>ent</span></i></p><p/><div>`,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello-world", d.Slug)
	assert.Equal(t, "test content", d.Description)
	assert.Equal(t, domain.VisibilityAll, d.Visibility)
	assert.Equal(t, domain.CommentableAll, d.Commentable)
	assert.Zero(t, d.LikesCount)
	assert.Zero(t, d.CommentsCount)
}

func TestDiaryService_CreateSuffixesTakenSlug(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	first := h.create(t, ann, "Hello World")
	second := h.create(t, ann, "Hello World")

	assert.Equal(t, "hello-world", first.Slug)
	assert.Regexp(t, suffixed, second.Slug)
}

func TestDiaryService_CreateAvoidsSlugsOfDeletedDiaries(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	first := h.create(t, ann, "Hello World")
	require.NoError(t, h.diaries.Delete(testCtx(), ann, first.Slug))

	again := h.create(t, ann, "Hello World")
	assert.Regexp(t, suffixed, again.Slug)
}

func TestDiaryService_CreateKeepsUnicodeSlug(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d := h.create(t, ann, "يومية للاختبار")
	assert.Equal(t, "يومية-للاختبار", d.Slug)
}

func TestDiaryService_CreateWithSymbolOnlyTitleUsesToken(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d := h.create(t, ann, "!!!")
	assert.Regexp(t, `^[A-Za-z0-9_-]{10}$`, d.Slug)
}

func TestDiaryService_CreateGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	h := newHarness(t, func(o *harnessOptions) {
		o.token = func() (string, error) {
			calls++
			return "AAAAAAAAAA", nil
		}
	})
	_, ann := h.profile(t, "ann")

	h.create(t, ann, "Hello World")
	h.create(t, ann, "Hello World")

	calls = 0
	_, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{Title: "Hello World", Content: "x"}, nil)
	assert.ErrorIs(t, err, ErrSlugGenerationExhausted)
	assert.Equal(t, MaxSlugAttempts, calls)
}

func TestDiaryService_CreateValidates(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	_, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{
		Title:      "   ",
		Content:    "",
		Visibility: "friends",
	}, nil)
	require.ErrorIs(t, err, ErrValidationFailed)

	fe, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, fe.Fields, "title")
	assert.Contains(t, fe.Fields, "content")
	assert.Contains(t, fe.Fields, "visibility")

	count, err := h.diaryRepo.Count(testCtx(), repository.DiaryFilter{Viewer: ann})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDiaryService_CreateRequiresViewer(t *testing.T) {
	h := newHarness(t)

	_, err := h.diaries.Create(testCtx(), domain.Anonymous, &domain.CreateDiaryRequest{Title: "x", Content: "x"}, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDiaryService_CreateSanitizesContent(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d := h.create(t, ann, "Safe", func(r *domain.CreateDiaryRequest) {
		r.Content = `<p onclick="x()">hi</p><script>alert(1)</script>`
	})
	assert.NotContains(t, d.Content, "script")
	assert.NotContains(t, d.Content, "onclick")
	assert.Contains(t, d.Content, "hi")
}

func TestDiaryService_CreateStoresImage(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{Title: "Pic", Content: "x"}, pngUpload(t, "pic.png"))
	require.NoError(t, err)
	require.NotEmpty(t, d.Image)
	assert.Equal(t, "/media/"+d.Image, d.ImageURL)

	_, err = h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{Title: "Txt", Content: "x"}, &Upload{Filename: "a.txt", Body: strings.NewReader("x")})
	fe, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, fe.Fields, "image")
}

func TestDiaryService_GetAppliesVisibility(t *testing.T) {
	h := newHarness(t)
	author, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")
	private := testutil.Diary(t, h.db, author, "secret", testutil.Private())

	_, err := h.diaries.Get(testCtx(), domain.Anonymous, private.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.diaries.Get(testCtx(), bob, private.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	detail, err := h.diaries.Get(testCtx(), ann, private.Slug)
	require.NoError(t, err)
	assert.Equal(t, private.ID, detail.ID)
	assert.True(t, detail.IsAuthor)
	assert.False(t, detail.CanComment)
}

func TestDiaryService_GetDecoratesForViewer(t *testing.T) {
	h := newHarness(t)
	author, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")
	d := testutil.Diary(t, h.db, author, "open")

	_, err := h.engagement.ToggleDiaryLike(testCtx(), bob, d.Slug)
	require.NoError(t, err)
	c, err := h.engagement.AddComment(testCtx(), ann, d.Slug, &domain.AddCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = h.engagement.ToggleCommentLike(testCtx(), bob, d.Slug, c.ID)
	require.NoError(t, err)

	detail, err := h.diaries.Get(testCtx(), bob, d.Slug)
	require.NoError(t, err)
	assert.True(t, detail.LikedByViewer)
	assert.True(t, detail.CanComment)
	assert.False(t, detail.IsAuthor)
	require.Len(t, detail.Comments, 1)
	assert.True(t, detail.Comments[0].LikedByViewer)
	assert.Equal(t, int64(1), detail.Comments[0].LikesCount)
	assert.Equal(t, "ann", detail.Comments[0].Author.Username)

	anon, err := h.diaries.Get(testCtx(), domain.Anonymous, d.Slug)
	require.NoError(t, err)
	assert.False(t, anon.LikedByViewer)
	assert.False(t, anon.CanComment)
}

func TestDiaryService_UpdateIsAuthorOnlyAndKeepsSlug(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")
	d := h.create(t, ann, "Original")

	title := "Renamed"
	_, err := h.diaries.Update(testCtx(), bob, d.Slug, &domain.UpdateDiaryRequest{Title: &title}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	body := "<p>new body</p>"
	private := domain.VisibilityNoOne
	updated, err := h.diaries.Update(testCtx(), ann, d.Slug, &domain.UpdateDiaryRequest{
		Title:      &title,
		Content:    &body,
		Visibility: &private,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, d.Slug, updated.Slug)
	assert.Equal(t, "new body", updated.Description)
	assert.Equal(t, domain.VisibilityNoOne, updated.Visibility)
}

func TestDiaryService_UpdateReplacesImage(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	d, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{Title: "Pic", Content: "x"}, pngUpload(t, "a.png"))
	require.NoError(t, err)

	updated, err := h.diaries.Update(testCtx(), ann, d.Slug, &domain.UpdateDiaryRequest{}, pngUpload(t, "b.png"))
	require.NoError(t, err)
	assert.NotEqual(t, d.Image, updated.Image)

	ok, err := h.storage.Exists(testCtx(), d.Image)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiaryService_DeleteCascades(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")
	d := h.create(t, ann, "Doomed")

	_, err := h.engagement.ToggleDiaryLike(testCtx(), bob, d.Slug)
	require.NoError(t, err)
	c, err := h.engagement.AddComment(testCtx(), bob, d.Slug, &domain.AddCommentRequest{Content: "hi"})
	require.NoError(t, err)
	_, err = h.engagement.ToggleCommentLike(testCtx(), ann, d.Slug, c.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, h.diaries.Delete(testCtx(), bob, d.Slug), ErrNotFound)
	require.NoError(t, h.diaries.Delete(testCtx(), ann, d.Slug))

	for _, model := range []interface{}{&domain.DiaryLike{}, &domain.Comment{}, &domain.CommentLike{}, &domain.Notification{}} {
		var n int64
		require.NoError(t, h.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}

	_, err = h.diaries.Get(testCtx(), ann, d.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiaryService_DeleteRemovesImages(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	url, err := h.diaries.UploadImage(testCtx(), ann, *pngUpload(t, "inline.png"))
	require.NoError(t, err)
	embeddedKey := strings.TrimPrefix(url, "/media/")

	d, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{
		Title:   "With images",
		Content: `<p>look</p><img src="` + url + `" alt="x">`,
	}, pngUpload(t, "cover.png"))
	require.NoError(t, err)

	require.NoError(t, h.diaries.Delete(testCtx(), ann, d.Slug))

	for _, key := range []string{embeddedKey, d.Image} {
		ok, err := h.storage.Exists(testCtx(), key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestDiaryService_CreateSuffixesFeedNames(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	for _, title := range []string{"Popular", "Discover"} {
		d := h.create(t, ann, title)
		assert.Regexp(t, `^`+strings.ToLower(title)+`-[A-Za-z0-9_-]{10}$`, d.Slug)
	}
}

func TestDiaryService_DeleteKeepsImagesOfOthers(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")
	_, bob := h.profile(t, "bob")

	avatar, err := h.identity.UpdateAvatar(testCtx(), bob, *pngUpload(t, "bob.png"))
	require.NoError(t, err)
	cover, err := h.diaries.Create(testCtx(), bob, &domain.CreateDiaryRequest{Title: "Bob's", Content: "x"}, pngUpload(t, "cover.png"))
	require.NoError(t, err)

	d, err := h.diaries.Create(testCtx(), ann, &domain.CreateDiaryRequest{
		Title:   "Borrowed",
		Content: `<img src="` + avatar.ImageURL + `"><img src="` + cover.ImageURL + `">`,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, h.diaries.Delete(testCtx(), ann, d.Slug))

	for _, key := range []string{avatar.Image, cover.Image} {
		ok, err := h.storage.Exists(testCtx(), key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestDescribeMatchesCreate(t *testing.T) {
	h := newHarness(t)
	_, ann := h.profile(t, "ann")

	long := "<p>" + strings.Repeat("word ", 200) + "</p>"
	d := h.create(t, ann, "Long", func(r *domain.CreateDiaryRequest) { r.Content = long })
	assert.Equal(t, content.Describe(d.Content), d.Description)
	assert.LessOrEqual(t, len([]rune(d.Description)), content.DescriptionMaxRunes)
}
