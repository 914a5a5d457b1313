package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/content"
)

type Gender string

const (
	GenderMale    Gender = "m"
	GenderFemale  Gender = "f"
	GenderUnknown Gender = "n"
)

// Profile is the public identity owned by exactly one user account.
type Profile struct {
	ID          string    `gorm:"type:varchar(26);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Username    string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Name        string    `gorm:"type:varchar(63);not null" json:"name"`
	Gender      Gender    `gorm:"type:varchar(1);not null;default:n" json:"gender"`
	Image       string    `gorm:"type:varchar(255)" json:"-"`
	ImageURL    string    `gorm:"-" json:"image_url,omitempty"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	SearchText  string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Name == "" {
		p.Name = p.Username
	}
	if p.Gender == "" {
		p.Gender = GenderUnknown
	}
	p.SearchText = p.FoldedSearchText()
	return nil
}

// FoldedSearchText is the case-folded text profile search matches against.
func (p *Profile) FoldedSearchText() string {
	return content.Fold(p.Username + "\n" + p.Name + "\n" + p.Description)
}

// Follow is a directed edge: FollowerID sees FollowingID's diaries on the home feed.
type Follow struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	FollowerID  string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_follow_pair,priority:1" json:"follower_id"`
	FollowingID string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Follow) TableName() string { return "follows" }

// ProfileStats are the read-only aggregates shown next to a profile.
type ProfileStats struct {
	DiariesCount   int64 `json:"diaries_count"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}

// ProfileSummary is a profile decorated with its aggregates.
type ProfileSummary struct {
	Profile
	ProfileStats
}

// ProfileDetail is a single profile as seen by a viewer.
type ProfileDetail struct {
	ProfileSummary
	FollowedByViewer bool `json:"followed_by_viewer"`
	IsViewer         bool `json:"is_viewer"`
}

// FollowState is the outcome of a follow toggle.
type FollowState struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}
