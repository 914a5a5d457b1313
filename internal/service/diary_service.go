package service

import (
	"context"
	"errors"
	"strings"

	"github.com/omar-ramo/yawm/internal/audit"
	"github.com/omar-ramo/yawm/internal/cache"
	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/media"
	"github.com/omar-ramo/yawm/internal/repository"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

// MaxSlugAttempts bounds how many suffixed slugs are tried after the base slug is taken.
const MaxSlugAttempts = 50

type diaryService struct {
	diaries    repository.DiaryRepository
	engagement repository.EngagementRepository
	sanitizer  content.Sanitizer
	media      MediaStore
	feeds      cache.FeedCache
	token      content.TokenFunc
	images     imageURLs
}

// NewDiaryService creates a new DiaryService instance. A nil token func uses content.NewToken.
func NewDiaryService(
	diaries repository.DiaryRepository,
	engagement repository.EngagementRepository,
	sanitizer content.Sanitizer,
	mediaStore MediaStore,
	feeds cache.FeedCache,
	token content.TokenFunc,
) DiaryService {
	if token == nil {
		token = content.NewToken
	}
	if feeds == nil {
		feeds = cache.NoopFeedCache{}
	}
	return &diaryService{
		diaries:    diaries,
		engagement: engagement,
		sanitizer:  sanitizer,
		media:      mediaStore,
		feeds:      feeds,
		token:      token,
		images:     imageURLs{media: mediaStore},
	}
}

func (s *diaryService) Create(ctx context.Context, viewer domain.Viewer, req *domain.CreateDiaryRequest, image *Upload) (*domain.Diary, error) {
	l := pkglog.Ctx(ctx)

	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	sanitized := s.sanitizer.Sanitize(req.Content)
	diary := &domain.Diary{
		Title:       req.Title,
		Content:     sanitized,
		Description: content.Describe(sanitized),
		Visibility:  req.Visibility,
		Commentable: req.Commentable,
		Feeling:     req.Feeling,
		AuthorID:    viewer.ProfileID,
	}
	if diary.Visibility == "" {
		diary.Visibility = domain.VisibilityAll
	}
	if diary.Commentable == "" {
		diary.Commentable = domain.CommentableAll
	}

	if image != nil {
		key, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		diary.Image = key
	}

	if err := s.insertWithSlug(ctx, diary); err != nil {
		if diary.Image != "" {
			if derr := s.media.Delete(ctx, diary.Image); derr != nil {
				l.Warn().Err(derr).Str(pkglog.FieldKey, diary.Image).Msg("failed to remove orphaned diary image")
			}
		}
		if !errors.Is(err, ErrSlugGenerationExhausted) {
			l.Error().Err(err).Msg("failed to create diary")
		}
		return nil, err
	}

	s.invalidateFeeds(ctx)
	audit.LogWithDetail(ctx, audit.ActionCreateDiary, viewer.ProfileID, diary.ID, diary.Slug, "diary created")

	s.images.diary(diary)
	return diary, nil
}

// reservedSlugs share a path segment with the diary feeds and always get a suffix.
var reservedSlugs = map[string]bool{
	feedPopular:  true,
	feedDiscover: true,
}

// insertWithSlug stores the diary under the slug of its title. A taken,
// reserved or empty slug gets a random suffix, retried up to MaxSlugAttempts times.
func (s *diaryService) insertWithSlug(ctx context.Context, diary *domain.Diary) error {
	base := content.Slugify(diary.Title)
	candidate := base

	for attempt := 0; ; attempt++ {
		if candidate != "" && !reservedSlugs[candidate] {
			exists, err := s.diaries.SlugExists(ctx, candidate)
			if err != nil {
				return err
			}
			if !exists {
				diary.Slug = candidate
				err := s.diaries.Create(ctx, diary)
				if err == nil {
					return nil
				}
				if !errors.Is(err, repository.ErrSlugTaken) {
					return err
				}
			}
		}

		if attempt == MaxSlugAttempts {
			l := pkglog.Ctx(ctx)
			l.Error().Str(pkglog.FieldSlug, base).Int("attempts", attempt).Msg("slug generation exhausted")
			return ErrSlugGenerationExhausted
		}
		token, err := s.token()
		if err != nil {
			return err
		}
		candidate = content.WithSuffix(base, token)
	}
}

func (s *diaryService) saveImage(ctx context.Context, image *Upload) (string, error) {
	key, err := s.media.Save(ctx, media.AppDiary, image.Filename, image.Body)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return "", fieldError("image", "Upload a valid image.")
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("failed to store diary image")
		return "", err
	}
	return key, nil
}

func (s *diaryService) bySlug(ctx context.Context, slug string) (*domain.Diary, error) {
	diary, err := s.diaries.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrDiaryNotFound) {
			return nil, ErrNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldSlug, slug).Msg("failed to load diary")
		return nil, err
	}
	return diary, nil
}

// authored loads a diary the viewer wrote. Diaries of other authors are reported as missing.
func (s *diaryService) authored(ctx context.Context, viewer domain.Viewer, slug string) (*domain.Diary, error) {
	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	diary, err := s.bySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !viewer.Is(diary.AuthorID) {
		return nil, ErrNotFound
	}
	return diary, nil
}

func (s *diaryService) Get(ctx context.Context, viewer domain.Viewer, slug string) (*domain.DiaryDetail, error) {
	diary, err := s.bySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !diary.VisibleTo(viewer) {
		return nil, ErrNotFound
	}

	comments, err := s.engagement.ListComments(ctx, diary.ID)
	if err != nil {
		return nil, err
	}

	detail := &domain.DiaryDetail{
		Diary:      *diary,
		Comments:   make([]domain.CommentView, 0, len(comments)),
		CanComment: !viewer.IsAnonymous() && diary.AcceptsComments(),
		IsAuthor:   viewer.Is(diary.AuthorID),
	}

	liked := map[string]bool{}
	if !viewer.IsAnonymous() {
		detail.LikedByViewer, err = s.engagement.IsDiaryLiked(ctx, viewer.ProfileID, diary.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		liked, err = s.engagement.LikedComments(ctx, viewer.ProfileID, ids)
		if err != nil {
			return nil, err
		}
	}

	for _, c := range comments {
		s.images.profile(c.Author)
		detail.Comments = append(detail.Comments, domain.CommentView{
			Comment:       c,
			LikedByViewer: liked[c.ID],
			IsAuthor:      viewer.Is(c.AuthorID),
		})
	}
	s.images.diary(&detail.Diary)
	return detail, nil
}

func (s *diaryService) Update(ctx context.Context, viewer domain.Viewer, slug string, req *domain.UpdateDiaryRequest, image *Upload) (*domain.Diary, error) {
	l := pkglog.Ctx(ctx)

	diary, err := s.authored(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		sanitized := s.sanitizer.Sanitize(*req.Content)
		fields["content"] = sanitized
		fields["description"] = content.Describe(sanitized)
	}
	if req.Visibility != nil {
		fields["visibility"] = *req.Visibility
	}
	if req.Commentable != nil {
		fields["commentable"] = *req.Commentable
	}
	if req.Feeling != nil {
		fields["feeling"] = *req.Feeling
	}

	oldImage := diary.Image
	if image != nil {
		key, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		fields["image"] = key
	}

	if len(fields) == 0 {
		s.images.diary(diary)
		return diary, nil
	}

	if err := s.diaries.Update(ctx, diary.ID, fields); err != nil {
		if key, ok := fields["image"].(string); ok {
			if derr := s.media.Delete(ctx, key); derr != nil {
				l.Warn().Err(derr).Str(pkglog.FieldKey, key).Msg("failed to remove orphaned diary image")
			}
		}
		if errors.Is(err, repository.ErrDiaryNotFound) {
			return nil, ErrNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldDiaryID, diary.ID).Msg("failed to update diary")
		return nil, err
	}

	if _, replaced := fields["image"]; replaced && oldImage != "" {
		if err := s.media.Delete(ctx, oldImage); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldKey, oldImage).Msg("failed to remove previous diary image")
		}
	}

	s.invalidateFeeds(ctx)
	audit.Log(ctx, audit.ActionUpdateDiary, viewer.ProfileID, diary.ID, "diary updated")

	updated, err := s.bySlug(ctx, diary.Slug)
	if err != nil {
		return nil, err
	}
	s.images.diary(updated)
	return updated, nil
}

// Delete removes the diary with everything attached to it, then cleans up
// its images. Image cleanup failures are logged only.
func (s *diaryService) Delete(ctx context.Context, viewer domain.Viewer, slug string) error {
	l := pkglog.Ctx(ctx)

	diary, err := s.authored(ctx, viewer, slug)
	if err != nil {
		return err
	}

	if err := s.diaries.Delete(ctx, diary.ID); err != nil {
		if errors.Is(err, repository.ErrDiaryNotFound) {
			return ErrNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldDiaryID, diary.ID).Msg("failed to delete diary")
		return err
	}

	s.invalidateFeeds(ctx)
	audit.LogWithDetail(ctx, audit.ActionDeleteDiary, viewer.ProfileID, diary.ID, diary.Slug, "diary deleted")

	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.media.CleanupEmbedded(cleanupCtx, diary.Content); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldDiaryID, diary.ID).Msg("failed to remove embedded images")
	}
	if err := s.media.Delete(cleanupCtx, diary.Image); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldKey, diary.Image).Msg("failed to remove diary image")
	}
	return nil
}

func (s *diaryService) UploadImage(ctx context.Context, viewer domain.Viewer, upload Upload) (string, error) {
	if viewer.IsAnonymous() {
		return "", ErrUnauthenticated
	}
	key, err := s.media.Save(ctx, media.AppUploads, upload.Filename, upload.Body)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return "", fieldError("upload", "Upload a valid image.")
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Msg("failed to store uploaded image")
		return "", err
	}
	return s.media.URL(key), nil
}

func (s *diaryService) invalidateFeeds(ctx context.Context) {
	if err := s.feeds.Invalidate(context.WithoutCancel(ctx)); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to invalidate feed cache")
	}
}
