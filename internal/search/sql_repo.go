package search

import (
	"context"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/repository"
)

type sqlRepository struct {
	db      *gorm.DB
	diaries repository.DiaryRepository
}

// NewSQLRepository searches with LIKE queries against the primary database.
func NewSQLRepository(db *gorm.DB, diaries repository.DiaryRepository) Repository {
	return &sqlRepository{db: db, diaries: diaries}
}

func (r *sqlRepository) diaryFilter(viewer domain.Viewer, text string) repository.DiaryFilter {
	return repository.DiaryFilter{Viewer: viewer, TitleContains: text}
}

func (r *sqlRepository) CountDiaries(ctx context.Context, viewer domain.Viewer, text string) (int64, error) {
	return r.diaries.Count(ctx, r.diaryFilter(viewer, text))
}

func (r *sqlRepository) SearchDiaries(ctx context.Context, viewer domain.Viewer, text string, offset, limit int) ([]string, error) {
	return r.diaries.ListIDs(ctx, r.diaryFilter(viewer, text), repository.OrderRecent, offset, limit)
}

func (r *sqlRepository) profiles(ctx context.Context, text string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Profile{})
	if text == "" {
		return q
	}
	return q.Where("search_text LIKE ? ESCAPE '!'", repository.LikePattern(text))
}

func (r *sqlRepository) CountProfiles(ctx context.Context, text string) (int64, error) {
	var count int64
	err := r.profiles(ctx, text).Count(&count).Error
	return count, err
}

func (r *sqlRepository) SearchProfiles(ctx context.Context, text string, offset, limit int) ([]string, error) {
	ids := []string{}
	err := r.profiles(ctx, text).
		Order("id ASC").
		Offset(offset).Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
