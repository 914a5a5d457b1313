package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omar-ramo/yawm/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow inserts the edge. A concurrent duplicate loses to the unique index
// and is reported as not written.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followingID string) (bool, error) {
	model := domain.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&domain.Follow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormFollowRepository) CountFollowers(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("following_id = ?", profileID).
		Count(&count).Error
	return count, err
}

func (r *GormFollowRepository) CountFollowing(ctx context.Context, profileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Follow{}).
		Where("follower_id = ?", profileID).
		Count(&count).Error
	return count, err
}

// Followers returns the profiles following profileID, most recent edge first.
func (r *GormFollowRepository) Followers(ctx context.Context, profileID string, offset, limit int) ([]domain.ProfileSummary, error) {
	return r.edges(ctx, "follows.follower_id = profiles.id", "follows.following_id = ?", profileID, offset, limit)
}

// Following returns the profiles profileID follows, most recent edge first.
func (r *GormFollowRepository) Following(ctx context.Context, profileID string, offset, limit int) ([]domain.ProfileSummary, error) {
	return r.edges(ctx, "follows.following_id = profiles.id", "follows.follower_id = ?", profileID, offset, limit)
}

func (r *GormFollowRepository) edges(ctx context.Context, on, where, profileID string, offset, limit int) ([]domain.ProfileSummary, error) {
	out := []domain.ProfileSummary{}
	err := r.db.WithContext(ctx).
		Table("profiles").
		Select(profileSummaryColumns).
		Joins("JOIN follows ON "+on).
		Where(where, profileID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).Limit(limit).
		Scan(&out).Error
	return out, err
}

var _ FollowRepository = (*GormFollowRepository)(nil)
