package search

import (
	"context"

	"github.com/omar-ramo/yawm/internal/domain"
)

// Repository finds diaries and profiles by text. It returns IDs in result
// order; callers load the rows themselves.
type Repository interface {
	// CountDiaries counts diaries visible to viewer whose title contains text.
	CountDiaries(ctx context.Context, viewer domain.Viewer, text string) (int64, error)
	// SearchDiaries returns matching diary IDs, newest first.
	SearchDiaries(ctx context.Context, viewer domain.Viewer, text string, offset, limit int) ([]string, error)
	// CountProfiles counts profiles whose name, username or description contains text.
	CountProfiles(ctx context.Context, text string) (int64, error)
	// SearchProfiles returns matching profile IDs in insertion order.
	SearchProfiles(ctx context.Context, text string, offset, limit int) ([]string, error)
}

// Indexer keeps an external search index in step with the database.
type Indexer interface {
	IndexDiary(ctx context.Context, doc DiaryDocument) error
	DeleteDiary(ctx context.Context, id string) error
	IndexProfile(ctx context.Context, doc ProfileDocument) error
	DeleteProfile(ctx context.Context, id string) error
}

// DiaryDocument is the indexed form of a diary.
type DiaryDocument struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorID   string `json:"author_id"`
	Visibility string `json:"visibility"`
	CreatedAt  string `json:"created_at"`
}

// ProfileDocument is the indexed form of a profile.
type ProfileDocument struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
