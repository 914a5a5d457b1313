package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/pkg/pagination"
)

type Visibility string

const (
	VisibilityAll   Visibility = "all"
	VisibilityNoOne Visibility = "no_one"
)

type Commentable string

const (
	CommentableAll   Commentable = "all"
	CommentableNoOne Commentable = "no_one"
)

type Feeling int

const (
	FeelingAngry Feeling = iota
	FeelingHappy
	FeelingExcited
	FeelingSad
)

// Diary is a journal entry. Deletion is soft; slugs stay reserved after deletion.
type Diary struct {
	ID            string         `gorm:"type:varchar(26);primaryKey" json:"id"`
	Title         string         `gorm:"type:varchar(255);not null" json:"title"`
	TitleFolded   string         `gorm:"type:text" json:"-"`
	Slug          string         `gorm:"type:varchar(275);uniqueIndex;not null" json:"slug"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	Description   string         `gorm:"type:varchar(255)" json:"description"`
	Image         string         `gorm:"type:varchar(255)" json:"-"`
	ImageURL      string         `gorm:"-" json:"image_url,omitempty"`
	Visibility    Visibility     `gorm:"type:varchar(10);not null;default:all;index" json:"visibility"`
	Commentable   Commentable    `gorm:"type:varchar(10);not null;default:all" json:"commentable"`
	Feeling       *Feeling       `json:"feeling,omitempty"`
	AuthorID      string         `gorm:"type:varchar(26);not null;index" json:"-"`
	Author        *Profile       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	LikesCount    int64          `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64          `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Diary) TableName() string { return "diaries" }

func (d *Diary) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = NewID()
	}
	d.TitleFolded = content.Fold(d.Title)
	return nil
}

// VisibleTo reports whether viewer may read the diary: public entries are
// visible to everyone, private ones only to their author.
func (d *Diary) VisibleTo(viewer Viewer) bool {
	return d.Visibility == VisibilityAll || viewer.Is(d.AuthorID)
}

// AcceptsComments reports whether anyone may comment on the diary.
func (d *Diary) AcceptsComments() bool {
	return d.Visibility == VisibilityAll && d.Commentable == CommentableAll
}

// DiaryDetail is a single diary as seen by a viewer.
type DiaryDetail struct {
	Diary
	Comments      []CommentView `json:"comments"`
	LikedByViewer bool          `json:"liked_by_viewer"`
	CanComment    bool          `json:"can_comment"`
	IsAuthor      bool          `json:"is_author"`
}

// DiaryPage is one page of a diary feed.
type DiaryPage struct {
	Items []Diary         `json:"items"`
	Page  pagination.Page `json:"page"`
}

// ProfilePage is one page of a profile listing.
type ProfilePage struct {
	Items []ProfileSummary `json:"items"`
	Page  pagination.Page  `json:"page"`
}

// SearchResult holds the two independently paginated result sets of a search.
type SearchResult struct {
	Query       string          `json:"query"`
	Diaries     DiaryPage       `json:"diaries"`
	Profiles    ProfilePage     `json:"profiles"`
	Page        pagination.Page `json:"page"`
	IsPaginated bool            `json:"is_paginated"`
}
