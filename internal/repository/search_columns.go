package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
)

const backfillBatchSize = 200

// BackfillSearchColumns fills the folded search columns of rows written
// before those columns existed, and reports how many rows it touched.
func BackfillSearchColumns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64

	var diaries []domain.Diary
	err := db.WithContext(ctx).Unscoped().
		Select("id", "title").
		Where("title_folded IS NULL").
		FindInBatches(&diaries, backfillBatchSize, func(_ *gorm.DB, _ int) error {
			for _, d := range diaries {
				err := db.WithContext(ctx).Unscoped().Model(&domain.Diary{}).
					Where("id = ?", d.ID).
					UpdateColumn("title_folded", content.Fold(d.Title)).Error
				if err != nil {
					return err
				}
			}
			total += int64(len(diaries))
			return nil
		}).Error
	if err != nil {
		return total, err
	}

	var profiles []domain.Profile
	err = db.WithContext(ctx).
		Where("search_text IS NULL").
		FindInBatches(&profiles, backfillBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range profiles {
				err := db.WithContext(ctx).Model(&domain.Profile{}).
					Where("id = ?", profiles[i].ID).
					UpdateColumn("search_text", profiles[i].FoldedSearchText()).Error
				if err != nil {
					return err
				}
			}
			total += int64(len(profiles))
			return nil
		}).Error
	return total, err
}
