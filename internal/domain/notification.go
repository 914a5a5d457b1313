package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/pkg/pagination"
)

type Verb string

const (
	VerbFollowed     Verb = "followed"
	VerbLiked        Verb = "liked"
	VerbCommented    Verb = "commented"
	VerbLikedComment Verb = "liked_comment"
)

type TargetType string

const (
	TargetProfile TargetType = "profile"
	TargetDiary   TargetType = "diary"
	TargetComment TargetType = "comment"
)

// Notification tells RecipientID that ActorID did Verb to a target.
// DiaryID is set whenever the target belongs to a diary so deleting the diary
// can remove it.
type Notification struct {
	ID          string     `gorm:"type:varchar(26);primaryKey" json:"id"`
	RecipientID string     `gorm:"type:varchar(26);not null;index:idx_notification_recipient,priority:1" json:"-"`
	ActorID     string     `gorm:"type:varchar(26);not null" json:"-"`
	Actor       *Profile   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Verb        Verb       `gorm:"type:varchar(20);not null" json:"verb"`
	TargetType  TargetType `gorm:"type:varchar(10);not null" json:"target_type"`
	TargetID    string     `gorm:"type:varchar(26);not null;index" json:"target_id"`
	DiaryID     *string    `gorm:"type:varchar(26);index" json:"diary_id,omitempty"`
	Unread      bool       `gorm:"not null;default:true;index:idx_notification_recipient,priority:2" json:"unread"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = NewID()
	}
	return nil
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&Profile{},
		&Follow{},
		&Diary{},
		&DiaryLike{},
		&Comment{},
		&CommentLike{},
		&Notification{},
	}
}

// NotificationPage is one page of a recipient's notifications.
type NotificationPage struct {
	Items  []Notification  `json:"items"`
	Page   pagination.Page `json:"page"`
	Unread int64           `json:"unread"`
}
