package service

import (
	"context"
	"io"

	"github.com/omar-ramo/yawm/internal/domain"
)

// Upload is an uploaded file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// MediaStore stores uploaded images.
type MediaStore interface {
	Save(ctx context.Context, app, filename string, r io.Reader) (string, error)
	SaveAvatar(ctx context.Context, filename string, r io.Reader) (string, error)
	URL(key string) string
	Delete(ctx context.Context, key string) error
	CleanupEmbedded(ctx context.Context, markup string) error
}

// IdentityService manages profiles and the follow graph.
type IdentityService interface {
	// EnsureProfile returns the profile of userID, creating it on first sight.
	EnsureProfile(ctx context.Context, userID, username string) (*domain.Profile, error)
	GetProfile(ctx context.Context, viewer domain.Viewer, username string) (*domain.ProfileDetail, error)
	ListProfiles(ctx context.Context, page int) (*domain.ProfilePage, error)
	TopProfiles(ctx context.Context, page int) (*domain.ProfilePage, error)
	Followers(ctx context.Context, username string, page int) (*domain.ProfilePage, error)
	Following(ctx context.Context, username string, page int) (*domain.ProfilePage, error)
	ToggleFollow(ctx context.Context, viewer domain.Viewer, username string) (*domain.FollowState, error)
	UpdateProfile(ctx context.Context, viewer domain.Viewer, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	UpdateAvatar(ctx context.Context, viewer domain.Viewer, upload Upload) (*domain.Profile, error)
}

// DiaryService manages diary entries.
type DiaryService interface {
	Create(ctx context.Context, viewer domain.Viewer, req *domain.CreateDiaryRequest, image *Upload) (*domain.Diary, error)
	Get(ctx context.Context, viewer domain.Viewer, slug string) (*domain.DiaryDetail, error)
	Update(ctx context.Context, viewer domain.Viewer, slug string, req *domain.UpdateDiaryRequest, image *Upload) (*domain.Diary, error)
	Delete(ctx context.Context, viewer domain.Viewer, slug string) error
	// UploadImage stores an image for embedding in diary content and returns its URL.
	UploadImage(ctx context.Context, viewer domain.Viewer, upload Upload) (string, error)
}

// EngagementService manages likes and comments.
type EngagementService interface {
	ToggleDiaryLike(ctx context.Context, viewer domain.Viewer, slug string) (*domain.LikeState, error)
	AddComment(ctx context.Context, viewer domain.Viewer, slug string, req *domain.AddCommentRequest) (*domain.Comment, error)
	DeleteComment(ctx context.Context, viewer domain.Viewer, slug, commentID string) error
	ToggleCommentLike(ctx context.Context, viewer domain.Viewer, slug, commentID string) (*domain.LikeState, error)
}

// FeedService composes paginated diary feeds for a viewer.
type FeedService interface {
	Home(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error)
	Popular(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error)
	Discover(ctx context.Context, viewer domain.Viewer, page int) (*domain.DiaryPage, error)
	ProfileDiaries(ctx context.Context, viewer domain.Viewer, username string, page int) (*domain.DiaryPage, error)
	Search(ctx context.Context, viewer domain.Viewer, query string, page int) (*domain.SearchResult, error)
}

// NotificationService reads and acknowledges a viewer's notifications.
type NotificationService interface {
	List(ctx context.Context, viewer domain.Viewer, page int) (*domain.NotificationPage, error)
	UnreadCount(ctx context.Context, viewer domain.Viewer) (int64, error)
	MarkRead(ctx context.Context, viewer domain.Viewer, id string) error
	MarkAllRead(ctx context.Context, viewer domain.Viewer) (int64, error)
}
