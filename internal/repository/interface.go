package repository

import (
	"context"
	"errors"

	"github.com/omar-ramo/yawm/internal/domain"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileExists        = errors.New("profile already exists")
	ErrDiaryNotFound        = errors.New("diary not found")
	ErrSlugTaken            = errors.New("slug already taken")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error

	Summary(ctx context.Context, id string) (*domain.ProfileSummary, error)
	SummariesByIDs(ctx context.Context, ids []string) ([]domain.ProfileSummary, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error)
	Top(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error)
}

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	// Follow inserts the edge and reports whether a row was written.
	// An existing edge is not an error.
	Follow(ctx context.Context, followerID, followingID string) (bool, error)
	// Unfollow removes the edge and reports whether a row was removed.
	Unfollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	CountFollowers(ctx context.Context, profileID string) (int64, error)
	CountFollowing(ctx context.Context, profileID string) (int64, error)
	Followers(ctx context.Context, profileID string, offset, limit int) ([]domain.ProfileSummary, error)
	Following(ctx context.Context, profileID string, offset, limit int) ([]domain.ProfileSummary, error)
}

// DiaryFilter selects diaries for a feed. The viewer's visibility rule always applies.
type DiaryFilter struct {
	Viewer domain.Viewer
	// HomeOf restricts to diaries by this profile and the profiles it follows.
	HomeOf string
	// AuthorID restricts to one author.
	AuthorID string
	// TitleContains keeps diaries whose title contains the text, ignoring case.
	TitleContains string
}

// DiaryOrder is the ranking of a feed.
type DiaryOrder int

const (
	// OrderRecent is newest first.
	OrderRecent DiaryOrder = iota
	// OrderPopular is likes plus comments, then newest first.
	OrderPopular
)

// DiaryRepository defines persistence operations for diaries.
type DiaryRepository interface {
	Create(ctx context.Context, diary *domain.Diary) error
	GetBySlug(ctx context.Context, slug string) (*domain.Diary, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Diary, error)
	// SlugExists checks live and deleted diaries.
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	// Delete removes the diary's comments, likes, comment likes and
	// notifications, then soft-deletes the diary, all in one transaction.
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context, filter DiaryFilter) (int64, error)
	List(ctx context.Context, filter DiaryFilter, order DiaryOrder, offset, limit int) ([]domain.Diary, error)
	ListIDs(ctx context.Context, filter DiaryFilter, order DiaryOrder, offset, limit int) ([]string, error)
}

// EngagementRepository defines persistence operations for likes and comments.
// Every counter change is a relative update inside the same transaction as the row change.
type EngagementRepository interface {
	ToggleDiaryLike(ctx context.Context, profileID, diaryID string) (domain.LikeState, error)
	IsDiaryLiked(ctx context.Context, profileID, diaryID string) (bool, error)

	AddComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, diaryID string) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, comment *domain.Comment) error

	ToggleCommentLike(ctx context.Context, profileID, commentID string) (domain.LikeState, error)
	LikedComments(ctx context.Context, profileID string, commentIDs []string) (map[string]bool, error)

	// RecountDiaries recomputes likes_count and comments_count from rows.
	RecountDiaries(ctx context.Context, ids []string) (int64, error)
	// RecountComments recomputes likes_count from rows.
	RecountComments(ctx context.Context, ids []string) (int64, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	Count(ctx context.Context, recipientID string) (int64, error)
	List(ctx context.Context, recipientID string, offset, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}
