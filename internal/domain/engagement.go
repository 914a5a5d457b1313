package domain

import (
	"time"

	"gorm.io/gorm"
)

// DiaryLike records that a profile liked a diary. The pair is unique.
type DiaryLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ProfileID string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_diary_like_pair,priority:1" json:"profile_id"`
	DiaryID   string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_diary_like_pair,priority:2;index" json:"diary_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DiaryLike) TableName() string { return "diary_likes" }

// Comment is a plain-text reply to a diary. ContentHTML is the escaped,
// linkified rendering derived on write.
type Comment struct {
	ID          string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentHTML string    `gorm:"type:text;not null" json:"content_html"`
	AuthorID    string    `gorm:"type:varchar(26);not null;index" json:"-"`
	Author      *Profile  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	DiaryID     string    `gorm:"type:varchar(26);not null;index" json:"diary_id"`
	LikesCount  int64     `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

// CommentLike records that a profile liked a comment. The pair is unique.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ProfileID string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_comment_like_pair,priority:1" json:"profile_id"`
	CommentID string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_comment_like_pair,priority:2;index" json:"comment_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CommentLike) TableName() string { return "comment_likes" }

// CommentView is a comment as seen by a viewer.
type CommentView struct {
	Comment
	LikedByViewer bool `json:"liked_by_viewer"`
	IsAuthor      bool `json:"is_author"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
	// Changed is false when a concurrent toggle had already written the same row.
	Changed bool `json:"-"`
}
