package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation reports whether err is a unique-constraint violation.
// The connection must be opened with TranslateError.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// VisibleTo keeps diaries the viewer may read.
func VisibleTo(viewer domain.Viewer) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewer.IsAnonymous() {
			return db.Where("diaries.visibility = ?", domain.VisibilityAll)
		}
		return db.Where("(diaries.visibility = ? OR diaries.author_id = ?)", domain.VisibilityAll, viewer.ProfileID)
	}
}

// LikePattern builds a LIKE pattern matching the folded text anywhere, to be
// used with ESCAPE '!' against a column holding content.Fold output.
func LikePattern(text string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(content.Fold(text)) + "%"
}

func (f DiaryFilter) scope(db *gorm.DB) *gorm.DB {
	db = db.Scopes(VisibleTo(f.Viewer))
	if f.HomeOf != "" {
		db = db.Where(
			"(diaries.author_id = ? OR diaries.author_id IN (SELECT following_id FROM follows WHERE follower_id = ?))",
			f.HomeOf, f.HomeOf,
		)
	}
	if f.AuthorID != "" {
		db = db.Where("diaries.author_id = ?", f.AuthorID)
	}
	if f.TitleContains != "" {
		db = db.Where("diaries.title_folded LIKE ? ESCAPE '!'", LikePattern(f.TitleContains))
	}
	return db
}

func (o DiaryOrder) clause() string {
	if o == OrderPopular {
		return "(diaries.likes_count + diaries.comments_count) DESC, diaries.created_at DESC, diaries.id DESC"
	}
	return "diaries.created_at DESC, diaries.id DESC"
}

// profileSummaryColumns selects a profile with its aggregates.
const profileSummaryColumns = `profiles.*,
	(SELECT COUNT(*) FROM diaries d WHERE d.author_id = profiles.id AND d.deleted_at IS NULL) AS diaries_count,
	(SELECT COUNT(*) FROM follows f1 WHERE f1.following_id = profiles.id) AS followers_count,
	(SELECT COUNT(*) FROM follows f2 WHERE f2.follower_id = profiles.id) AS following_count`
