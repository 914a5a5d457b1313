package service

import (
	"context"
	"errors"
	"strings"

	"github.com/omar-ramo/yawm/internal/audit"
	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/notify"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/store"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

type engagementService struct {
	diaries    repository.DiaryRepository
	engagement repository.EngagementRepository
	sanitizer  content.Sanitizer
	emitter    notify.Emitter
	counters   store.CounterStore
	images     imageURLs
}

// NewEngagementService creates a new EngagementService instance.
func NewEngagementService(
	diaries repository.DiaryRepository,
	engagement repository.EngagementRepository,
	sanitizer content.Sanitizer,
	emitter notify.Emitter,
	counters store.CounterStore,
	mediaStore MediaStore,
) EngagementService {
	if counters == nil {
		counters = store.NoopCounterStore{}
	}
	return &engagementService{
		diaries:    diaries,
		engagement: engagement,
		sanitizer:  sanitizer,
		emitter:    emitter,
		counters:   counters,
		images:     imageURLs{media: mediaStore},
	}
}

// public loads a diary that accepts engagement. Private diaries are reported as missing.
func (s *engagementService) public(ctx context.Context, viewer domain.Viewer, slug string) (*domain.Diary, error) {
	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	diary, err := s.diaries.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrDiaryNotFound) {
			return nil, ErrNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldSlug, slug).Msg("failed to load diary")
		return nil, err
	}
	if diary.Visibility != domain.VisibilityAll {
		return nil, ErrNotFound
	}
	return diary, nil
}

// comment loads a comment of diary.
func (s *engagementService) comment(ctx context.Context, diary *domain.Diary, commentID string) (*domain.Comment, error) {
	comment, err := s.engagement.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if comment.DiaryID != diary.ID {
		return nil, ErrNotFound
	}
	return comment, nil
}

func (s *engagementService) ToggleDiaryLike(ctx context.Context, viewer domain.Viewer, slug string) (*domain.LikeState, error) {
	l := pkglog.Ctx(ctx)

	diary, err := s.public(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}

	state, err := s.engagement.ToggleDiaryLike(ctx, viewer.ProfileID, diary.ID)
	if err != nil {
		if errors.Is(err, repository.ErrDiaryNotFound) {
			return nil, ErrNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldDiaryID, diary.ID).Msg("failed to toggle diary like")
		return nil, err
	}
	s.markDirty(ctx, store.KindDiary, diary.ID)

	if state.Liked && state.Changed {
		diaryID := diary.ID
		s.emitter.Emit(ctx, &domain.Notification{
			RecipientID: diary.AuthorID,
			ActorID:     viewer.ProfileID,
			Verb:        domain.VerbLiked,
			TargetType:  domain.TargetDiary,
			TargetID:    diary.ID,
			DiaryID:     &diaryID,
		})
	}
	return &state, nil
}

func (s *engagementService) AddComment(ctx context.Context, viewer domain.Viewer, slug string, req *domain.AddCommentRequest) (*domain.Comment, error) {
	l := pkglog.Ctx(ctx)

	diary, err := s.public(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}
	if !diary.AcceptsComments() {
		return nil, ErrNotFound
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		Content:     req.Content,
		ContentHTML: s.sanitizer.Linkify(req.Content),
		AuthorID:    viewer.ProfileID,
		DiaryID:     diary.ID,
	}
	if err := s.engagement.AddComment(ctx, comment); err != nil {
		l.Error().Err(err).Str(pkglog.FieldDiaryID, diary.ID).Msg("failed to add comment")
		return nil, err
	}
	s.markDirty(ctx, store.KindDiary, diary.ID)
	audit.Log(ctx, audit.ActionAddComment, viewer.ProfileID, comment.ID, "comment added")

	diaryID := diary.ID
	s.emitter.Emit(ctx, &domain.Notification{
		RecipientID: diary.AuthorID,
		ActorID:     viewer.ProfileID,
		Verb:        domain.VerbCommented,
		TargetType:  domain.TargetComment,
		TargetID:    comment.ID,
		DiaryID:     &diaryID,
	})

	if created, err := s.engagement.GetComment(ctx, comment.ID); err == nil {
		s.images.profile(created.Author)
		return created, nil
	}
	return comment, nil
}

func (s *engagementService) DeleteComment(ctx context.Context, viewer domain.Viewer, slug, commentID string) error {
	l := pkglog.Ctx(ctx)

	diary, err := s.public(ctx, viewer, slug)
	if err != nil {
		return err
	}
	comment, err := s.comment(ctx, diary, commentID)
	if err != nil {
		return err
	}
	if !viewer.Is(comment.AuthorID) {
		return ErrNotFound
	}

	if err := s.engagement.DeleteComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldCommentID, comment.ID).Msg("failed to delete comment")
		return err
	}
	s.markDirty(ctx, store.KindDiary, diary.ID)
	audit.Log(ctx, audit.ActionDeleteComment, viewer.ProfileID, comment.ID, "comment deleted")
	return nil
}

func (s *engagementService) ToggleCommentLike(ctx context.Context, viewer domain.Viewer, slug, commentID string) (*domain.LikeState, error) {
	l := pkglog.Ctx(ctx)

	diary, err := s.public(ctx, viewer, slug)
	if err != nil {
		return nil, err
	}
	comment, err := s.comment(ctx, diary, commentID)
	if err != nil {
		return nil, err
	}

	state, err := s.engagement.ToggleCommentLike(ctx, viewer.ProfileID, comment.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrNotFound
		}
		l.Error().Err(err).Str(pkglog.FieldCommentID, comment.ID).Msg("failed to toggle comment like")
		return nil, err
	}
	s.markDirty(ctx, store.KindComment, comment.ID)

	if state.Liked && state.Changed {
		diaryID := diary.ID
		s.emitter.Emit(ctx, &domain.Notification{
			RecipientID: comment.AuthorID,
			ActorID:     viewer.ProfileID,
			Verb:        domain.VerbLikedComment,
			TargetType:  domain.TargetComment,
			TargetID:    comment.ID,
			DiaryID:     &diaryID,
		})
	}
	return &state, nil
}

// markDirty queues a row for counter reconciliation. Failures only delay the recount.
func (s *engagementService) markDirty(ctx context.Context, kind store.Kind, id string) {
	if err := s.counters.MarkDirty(context.WithoutCancel(ctx), kind, id); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str("kind", string(kind)).Str(pkglog.FieldTargetID, id).Msg("failed to mark counter dirty")
	}
}
