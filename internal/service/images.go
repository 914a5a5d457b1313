package service

import "github.com/omar-ramo/yawm/internal/domain"

// imageURLs fills the ImageURL fields of loaded rows.
type imageURLs struct {
	media MediaStore
}

func (u imageURLs) url(key string) string {
	if u.media == nil || key == "" {
		return ""
	}
	return u.media.URL(key)
}

func (u imageURLs) profile(p *domain.Profile) {
	if p != nil {
		p.ImageURL = u.url(p.Image)
	}
}

func (u imageURLs) profiles(items []domain.ProfileSummary) {
	for i := range items {
		u.profile(&items[i].Profile)
	}
}

func (u imageURLs) diary(d *domain.Diary) {
	d.ImageURL = u.url(d.Image)
	u.profile(d.Author)
}

func (u imageURLs) diaries(items []domain.Diary) {
	for i := range items {
		u.diary(&items[i])
	}
}
