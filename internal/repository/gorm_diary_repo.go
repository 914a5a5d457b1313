package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
)

// GormDiaryRepository implements DiaryRepository using GORM.
type GormDiaryRepository struct {
	db *gorm.DB
}

// NewGormDiaryRepository creates a new GORM-backed diary repository.
func NewGormDiaryRepository(db *gorm.DB) *GormDiaryRepository {
	return &GormDiaryRepository{db: db}
}

// Create inserts the diary. A slug collision with any existing row, live or
// deleted, returns ErrSlugTaken.
func (r *GormDiaryRepository) Create(ctx context.Context, diary *domain.Diary) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(diary).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *GormDiaryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Diary, error) {
	var diary domain.Diary
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("slug = ?", slug).
		First(&diary).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDiaryNotFound
		}
		return nil, err
	}
	return &diary, nil
}

// GetByIDs returns live diaries in the order of ids, skipping unknown ids.
func (r *GormDiaryRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Diary, error) {
	if len(ids) == 0 {
		return []domain.Diary{}, nil
	}

	var rows []domain.Diary
	if err := r.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Diary, len(rows))
	for _, d := range rows {
		byID[d.ID] = d
	}
	out := make([]domain.Diary, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *GormDiaryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&domain.Diary{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormDiaryRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if title, ok := fields["title"].(string); ok {
		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		updates["title_folded"] = content.Fold(title)
		fields = updates
	}
	result := r.db.WithContext(ctx).Model(&domain.Diary{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiaryNotFound
	}
	return nil
}

func (r *GormDiaryRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&domain.Comment{}).Select("id").Where("diary_id = ?", id)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&domain.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("diary_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("diary_id = ?", id).Delete(&domain.DiaryLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("diary_id = ?", id).Delete(&domain.Notification{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&domain.Diary{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDiaryNotFound
		}
		return nil
	})
}

func (r *GormDiaryRepository) Count(ctx context.Context, filter DiaryFilter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Diary{}).
		Scopes(filter.scope).
		Count(&count).Error
	return count, err
}

func (r *GormDiaryRepository) List(ctx context.Context, filter DiaryFilter, order DiaryOrder, offset, limit int) ([]domain.Diary, error) {
	out := []domain.Diary{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Scopes(filter.scope).
		Order(order.clause()).
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *GormDiaryRepository) ListIDs(ctx context.Context, filter DiaryFilter, order DiaryOrder, offset, limit int) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&domain.Diary{}).
		Scopes(filter.scope).
		Order(order.clause()).
		Offset(offset).Limit(limit).
		Pluck("diaries.id", &ids).Error
	return ids, err
}

var _ DiaryRepository = (*GormDiaryRepository)(nil)
