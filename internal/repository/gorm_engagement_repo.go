package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omar-ramo/yawm/internal/domain"
)

// GormEngagementRepository implements EngagementRepository using GORM.
type GormEngagementRepository struct {
	db *gorm.DB
}

// NewGormEngagementRepository creates a new GORM-backed engagement repository.
func NewGormEngagementRepository(db *gorm.DB) *GormEngagementRepository {
	return &GormEngagementRepository{db: db}
}

// like describes one like table and the counter it feeds.
type like struct {
	row         interface{} // *domain.DiaryLike or *domain.CommentLike
	match       string
	profileID   string
	targetID    string
	counter     interface{} // *domain.Diary or *domain.Comment
	notFoundErr error
}

// toggle removes the like if present, otherwise inserts it. The insert
// ignores a unique conflict, so a concurrent toggle that already inserted the
// row leaves the counter untouched and still reports liked.
func (r *GormEngagementRepository) toggle(ctx context.Context, l like) (domain.LikeState, error) {
	var state domain.LikeState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.Where(l.match, l.profileID, l.targetID).Delete(l.row)
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected > 0 {
			state.Liked = false
			state.Changed = true
			if err := bump(tx, l.counter, l.targetID, "likes_count", -1); err != nil {
				return err
			}
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(l.row)
			if inserted.Error != nil {
				return inserted.Error
			}
			state.Liked = true
			state.Changed = inserted.RowsAffected > 0
			if state.Changed {
				if err := bump(tx, l.counter, l.targetID, "likes_count", 1); err != nil {
					return err
				}
			}
		}

		var counts []int64
		if err := tx.Model(l.counter).Where("id = ?", l.targetID).Pluck("likes_count", &counts).Error; err != nil {
			return err
		}
		if len(counts) == 0 {
			return l.notFoundErr
		}
		state.LikesCount = counts[0]
		return nil
	})
	return state, err
}

// bump applies a relative update to one counter column, never below zero.
func bump(tx *gorm.DB, model interface{}, id, column string, delta int) error {
	q := tx.Model(model).Where("id = ?", id)
	if delta < 0 {
		q = q.Where(column + " > 0")
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func (r *GormEngagementRepository) ToggleDiaryLike(ctx context.Context, profileID, diaryID string) (domain.LikeState, error) {
	return r.toggle(ctx, like{
		row:         &domain.DiaryLike{ProfileID: profileID, DiaryID: diaryID},
		match:       "profile_id = ? AND diary_id = ?",
		profileID:   profileID,
		targetID:    diaryID,
		counter:     &domain.Diary{},
		notFoundErr: ErrDiaryNotFound,
	})
}

func (r *GormEngagementRepository) IsDiaryLiked(ctx context.Context, profileID, diaryID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.DiaryLike{}).
		Where("profile_id = ? AND diary_id = ?", profileID, diaryID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddComment inserts the comment and increments the diary's comments_count.
func (r *GormEngagementRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return err
		}
		return bump(tx, &domain.Diary{}, comment.DiaryID, "comments_count", 1)
	})
}

func (r *GormEngagementRepository) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&comment).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// ListComments returns a diary's comments oldest first.
func (r *GormEngagementRepository) ListComments(ctx context.Context, diaryID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("diary_id = ?", diaryID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// DeleteComment removes the comment with its likes and notifications and
// decrements the diary's comments_count.
func (r *GormEngagementRepository) DeleteComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&domain.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", domain.TargetComment, comment.ID).
			Delete(&domain.Notification{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", comment.ID).Delete(&domain.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return bump(tx, &domain.Diary{}, comment.DiaryID, "comments_count", -1)
	})
}

func (r *GormEngagementRepository) ToggleCommentLike(ctx context.Context, profileID, commentID string) (domain.LikeState, error) {
	return r.toggle(ctx, like{
		row:         &domain.CommentLike{ProfileID: profileID, CommentID: commentID},
		match:       "profile_id = ? AND comment_id = ?",
		profileID:   profileID,
		targetID:    commentID,
		counter:     &domain.Comment{},
		notFoundErr: ErrCommentNotFound,
	})
}

func (r *GormEngagementRepository) LikedComments(ctx context.Context, profileID string, commentIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(commentIDs))
	if profileID == "" || len(commentIDs) == 0 {
		return result, nil
	}

	var liked []string
	err := r.db.WithContext(ctx).Model(&domain.CommentLike{}).
		Where("profile_id = ? AND comment_id IN ?", profileID, commentIDs).
		Pluck("comment_id", &liked).Error
	if err != nil {
		return nil, err
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}

func (r *GormEngagementRepository) RecountDiaries(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Diary{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"likes_count":    gorm.Expr("(SELECT COUNT(*) FROM diary_likes WHERE diary_likes.diary_id = diaries.id)"),
			"comments_count": gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.diary_id = diaries.id)"),
		})
	return result.RowsAffected, result.Error
}

func (r *GormEngagementRepository) RecountComments(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id IN ?", ids).
		UpdateColumn("likes_count", gorm.Expr("(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id)"))
	return result.RowsAffected, result.Error
}

var _ EngagementRepository = (*GormEngagementRepository)(nil)
