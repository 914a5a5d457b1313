package service

import (
	"context"
	"errors"
	"strings"

	"github.com/omar-ramo/yawm/internal/audit"
	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/media"
	"github.com/omar-ramo/yawm/internal/notify"
	"github.com/omar-ramo/yawm/internal/repository"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/pagination"
)

// maxUsernameAttempts bounds the suffixed retries when a username is taken.
const maxUsernameAttempts = 3

type identityService struct {
	profiles repository.ProfileRepository
	follows  repository.FollowRepository
	media    MediaStore
	emitter  notify.Emitter
	images   imageURLs
}

// NewIdentityService creates a new IdentityService instance.
func NewIdentityService(
	profiles repository.ProfileRepository,
	follows repository.FollowRepository,
	mediaStore MediaStore,
	emitter notify.Emitter,
) IdentityService {
	return &identityService{
		profiles: profiles,
		follows:  follows,
		media:    mediaStore,
		emitter:  emitter,
		images:   imageURLs{media: mediaStore},
	}
}

func (s *identityService) EnsureProfile(ctx context.Context, userID, username string) (*domain.Profile, error) {
	l := pkglog.Ctx(ctx)

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		s.images.profile(profile)
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to load profile")
		return nil, err
	}

	profile = &domain.Profile{UserID: userID, Username: username}
	for attempt := 0; ; attempt++ {
		err = s.profiles.Create(ctx, profile)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrProfileExists) || attempt == maxUsernameAttempts {
			l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to create profile")
			return nil, err
		}
		// A concurrent request created it first.
		if existing, gerr := s.profiles.GetByUserID(ctx, userID); gerr == nil {
			s.images.profile(existing)
			return existing, nil
		}
		// Otherwise another user holds the claimed username.
		suffix, terr := content.NewToken()
		if terr != nil {
			return nil, terr
		}
		profile = &domain.Profile{UserID: userID, Username: username + "-" + suffix}
	}

	audit.Log(ctx, audit.ActionCreateProfile, profile.ID, "", "profile created")
	return profile, nil
}

func (s *identityService) byUsername(ctx context.Context, username string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldUsername, username).Msg("failed to load profile")
		return nil, err
	}
	return profile, nil
}

func (s *identityService) GetProfile(ctx context.Context, viewer domain.Viewer, username string) (*domain.ProfileDetail, error) {
	profile, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	summary, err := s.profiles.Summary(ctx, profile.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.images.profile(&summary.Profile)

	detail := &domain.ProfileDetail{
		ProfileSummary: *summary,
		IsViewer:       viewer.Is(profile.ID),
	}
	if !viewer.IsAnonymous() && !detail.IsViewer {
		detail.FollowedByViewer, err = s.follows.IsFollowing(ctx, viewer.ProfileID, profile.ID)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *identityService) ListProfiles(ctx context.Context, page int) (*domain.ProfilePage, error) {
	return s.page(ctx, page, s.profiles.Count, s.profiles.List)
}

func (s *identityService) TopProfiles(ctx context.Context, page int) (*domain.ProfilePage, error) {
	return s.page(ctx, page, s.profiles.Count, s.profiles.Top)
}

func (s *identityService) Followers(ctx context.Context, username string, page int) (*domain.ProfilePage, error) {
	profile, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, page,
		func(ctx context.Context) (int64, error) { return s.follows.CountFollowers(ctx, profile.ID) },
		func(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error) {
			return s.follows.Followers(ctx, profile.ID, offset, limit)
		},
	)
}

func (s *identityService) Following(ctx context.Context, username string, page int) (*domain.ProfilePage, error) {
	profile, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, page,
		func(ctx context.Context) (int64, error) { return s.follows.CountFollowing(ctx, profile.ID) },
		func(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error) {
			return s.follows.Following(ctx, profile.ID, offset, limit)
		},
	)
}

func (s *identityService) page(
	ctx context.Context,
	requested int,
	count func(context.Context) (int64, error),
	list func(ctx context.Context, offset, limit int) ([]domain.ProfileSummary, error),
) (*domain.ProfilePage, error) {
	l := pkglog.Ctx(ctx)

	total, err := count(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to count profiles")
		return nil, err
	}
	p := pagination.New(requested, total, pagination.ProfilePageSize)

	items, err := list(ctx, p.Offset(), p.Limit())
	if err != nil {
		l.Error().Err(err).Msg("failed to list profiles")
		return nil, err
	}
	s.images.profiles(items)

	return &domain.ProfilePage{Items: items, Page: p}, nil
}

// ToggleFollow unfollows the target if the viewer follows it, otherwise follows it.
func (s *identityService) ToggleFollow(ctx context.Context, viewer domain.Viewer, username string) (*domain.FollowState, error) {
	l := pkglog.Ctx(ctx)

	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if viewer.Is(target.ID) {
		return nil, ErrSelfFollow
	}

	state := &domain.FollowState{}
	removed, err := s.follows.Unfollow(ctx, viewer.ProfileID, target.ID)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldTargetID, target.ID).Msg("failed to unfollow profile")
		return nil, err
	}

	if removed {
		audit.Log(ctx, audit.ActionUnfollow, viewer.ProfileID, target.ID, "profile unfollowed")
	} else {
		written, err := s.follows.Follow(ctx, viewer.ProfileID, target.ID)
		if err != nil {
			l.Error().Err(err).Str(pkglog.FieldTargetID, target.ID).Msg("failed to follow profile")
			return nil, err
		}
		state.Following = true
		if written {
			audit.Log(ctx, audit.ActionFollow, viewer.ProfileID, target.ID, "profile followed")
			s.emitter.Emit(ctx, &domain.Notification{
				RecipientID: target.ID,
				ActorID:     viewer.ProfileID,
				Verb:        domain.VerbFollowed,
				TargetType:  domain.TargetProfile,
				TargetID:    target.ID,
			})
		}
	}

	state.FollowersCount, err = s.follows.CountFollowers(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *identityService) UpdateProfile(ctx context.Context, viewer domain.Viewer, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	l := pkglog.Ctx(ctx)

	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		req.Description = &desc
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}

	if len(fields) > 0 {
		if err := s.profiles.Update(ctx, viewer.ProfileID, fields); err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return nil, ErrNotFound
			}
			l.Error().Err(err).Msg("failed to update profile")
			return nil, err
		}
		audit.Log(ctx, audit.ActionUpdateProfile, viewer.ProfileID, viewer.ProfileID, "profile updated")
	}

	return s.load(ctx, viewer.ProfileID)
}

func (s *identityService) UpdateAvatar(ctx context.Context, viewer domain.Viewer, upload Upload) (*domain.Profile, error) {
	l := pkglog.Ctx(ctx)

	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	current, err := s.load(ctx, viewer.ProfileID)
	if err != nil {
		return nil, err
	}

	key, err := s.media.SaveAvatar(ctx, upload.Filename, upload.Body)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return nil, fieldError("image", "Upload a valid image.")
		}
		l.Error().Err(err).Msg("failed to store avatar")
		return nil, err
	}

	if err := s.profiles.Update(ctx, viewer.ProfileID, map[string]interface{}{"image": key}); err != nil {
		if derr := s.media.Delete(ctx, key); derr != nil {
			l.Warn().Err(derr).Str(pkglog.FieldKey, key).Msg("failed to remove orphaned avatar")
		}
		return nil, err
	}
	if current.Image != "" {
		if err := s.media.Delete(ctx, current.Image); err != nil {
			l.Warn().Err(err).Str(pkglog.FieldKey, current.Image).Msg("failed to remove previous avatar")
		}
	}
	audit.LogWithDetail(ctx, audit.ActionUpdateAvatar, viewer.ProfileID, viewer.ProfileID, key, "avatar updated")

	return s.load(ctx, viewer.ProfileID)
}

func (s *identityService) load(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.images.profile(profile)
	return profile, nil
}
