// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/pkg/database"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.Models()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Profile inserts a profile for username.
func Profile(t *testing.T, db *gorm.DB, username string) *domain.Profile {
	t.Helper()

	p := &domain.Profile{UserID: "user-" + username, Username: username}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Follow inserts a follow edge.
func Follow(t *testing.T, db *gorm.DB, follower, following *domain.Profile) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error)
}

// DiaryOption customises a fixture diary.
type DiaryOption func(*domain.Diary)

// Private makes the diary visible to its author only.
func Private() DiaryOption {
	return func(d *domain.Diary) { d.Visibility = domain.VisibilityNoOne }
}

// Closed disables comments.
func Closed() DiaryOption {
	return func(d *domain.Diary) { d.Commentable = domain.CommentableNoOne }
}

// Counts sets the denormalized counters.
func Counts(likes, comments int64) DiaryOption {
	return func(d *domain.Diary) {
		d.LikesCount = likes
		d.CommentsCount = comments
	}
}

// CreatedAt pins the creation time.
func CreatedAt(ts time.Time) DiaryOption {
	return func(d *domain.Diary) { d.CreatedAt = ts }
}

// Diary inserts a public, commentable diary by author.
func Diary(t *testing.T, db *gorm.DB, author *domain.Profile, title string, opts ...DiaryOption) *domain.Diary {
	t.Helper()

	d := &domain.Diary{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%s", author.Username, uuid.NewString()[:8]),
		Content:     "<p>" + title + "</p>",
		Description: title,
		Visibility:  domain.VisibilityAll,
		Commentable: domain.CommentableAll,
		AuthorID:    author.ID,
	}
	for _, opt := range opts {
		opt(d)
	}
	require.NoError(t, db.Omit("Author").Create(d).Error)
	return d
}
