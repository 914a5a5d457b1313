package service

import (
	"context"
	"errors"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/pagination"
)

type notificationService struct {
	repo   repository.NotificationRepository
	images imageURLs
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(repo repository.NotificationRepository, mediaStore MediaStore) NotificationService {
	return &notificationService{repo: repo, images: imageURLs{media: mediaStore}}
}

func (s *notificationService) List(ctx context.Context, viewer domain.Viewer, page int) (*domain.NotificationPage, error) {
	l := pkglog.Ctx(ctx)

	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	count, err := s.repo.Count(ctx, viewer.ProfileID)
	if err != nil {
		l.Error().Err(err).Msg("failed to count notifications")
		return nil, err
	}
	p := pagination.New(page, count, pagination.NotificationPageSize)

	items, err := s.repo.List(ctx, viewer.ProfileID, p.Offset(), p.Limit())
	if err != nil {
		l.Error().Err(err).Msg("failed to list notifications")
		return nil, err
	}
	for i := range items {
		s.images.profile(items[i].Actor)
	}

	unread, err := s.repo.CountUnread(ctx, viewer.ProfileID)
	if err != nil {
		return nil, err
	}

	return &domain.NotificationPage{Items: items, Page: p, Unread: unread}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, viewer domain.Viewer) (int64, error) {
	if viewer.IsAnonymous() {
		return 0, ErrUnauthenticated
	}
	return s.repo.CountUnread(ctx, viewer.ProfileID)
}

func (s *notificationService) MarkRead(ctx context.Context, viewer domain.Viewer, id string) error {
	if viewer.IsAnonymous() {
		return ErrUnauthenticated
	}
	if err := s.repo.MarkRead(ctx, viewer.ProfileID, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return ErrNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str("notification_id", id).Msg("failed to mark notification read")
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, viewer domain.Viewer) (int64, error) {
	if viewer.IsAnonymous() {
		return 0, ErrUnauthenticated
	}
	return s.repo.MarkAllRead(ctx, viewer.ProfileID)
}
