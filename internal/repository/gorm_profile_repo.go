package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/domain"
)

// GormProfileRepository implements ProfileRepository using GORM.
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-backed profile repository.
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return err
	}
	return nil
}

func (r *GormProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *GormProfileRepository) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GormProfileRepository) first(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Update applies fields and keeps the search text in step with them.
func (r *GormProfileRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Profile
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			if isNotFound(err) {
				return ErrProfileNotFound
			}
			return err
		}

		updates := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			updates[k] = v
		}
		if v, ok := fields["username"].(string); ok {
			current.Username = v
		}
		if v, ok := fields["name"].(string); ok {
			current.Name = v
		}
		if v, ok := fields["description"].(string); ok {
			current.Description = v
		}
		updates["search_text"] = current.FoldedSearchText()

		err := tx.Model(&domain.Profile{}).Where("id = ?", id).Updates(updates).Error
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return err
	})
}

func (r *GormProfileRepository) summaries(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("profiles").Select(profileSummaryColumns)
}

func (r *GormProfileRepository) Summary(ctx context.Context, id string) (*domain.ProfileSummary, error) {
	var out []domain.ProfileSummary
	if err := r.summaries(ctx).Where("profiles.id = ?", id).Limit(1).Scan(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrProfileNotFound
	}
	return &out[0], nil
}

// SummariesByIDs returns the profiles in the order of ids, skipping unknown ids.
func (r *GormProfileRepository) SummariesByIDs(ctx context.Context, ids []string) ([]domain.ProfileSummary, error) {
	if len(ids) == 0 {
		return []domain.ProfileSummary{}, nil
	}

	var rows []domain.ProfileSummary
	if err := r.summaries(ctx).Where("profiles.id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]domain.ProfileSummary, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]domain.ProfileSummary, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).Count(&count).Error
	return count, err
}

// List returns profiles newest first.
func (r *GormProfileRepository) List(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error) {
	out := []domain.ProfileSummary{}
	err := r.summaries(ctx).
		Order("profiles.created_at DESC, profiles.id DESC").
		Offset(offset).Limit(limit).
		Scan(&out).Error
	return out, err
}

// Top ranks profiles by diaries plus followers, ties broken by insertion order.
func (r *GormProfileRepository) Top(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error) {
	ranked := r.summaries(ctx)

	out := []domain.ProfileSummary{}
	err := r.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Order("ranked.diaries_count + ranked.followers_count DESC, ranked.id ASC").
		Offset(offset).Limit(limit).
		Scan(&out).Error
	return out, err
}

var _ ProfileRepository = (*GormProfileRepository)(nil)
