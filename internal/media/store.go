package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/omar-ramo/yawm/internal/content"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/storage"
)

var ErrUnsupportedImage = errors.New("unsupported image")

const (
	AppDiary   = "diary"
	AppProfile = "profile"
	AppUploads = "uploads"

	thumbSuffix = "_thumb"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Config controls derived image sizes.
type Config struct {
	ThumbWidth  int
	ThumbHeight int
	AvatarSize  int
	JPEGQuality int
}

func DefaultConfig() Config {
	return Config{ThumbWidth: 300, ThumbHeight: 300, AvatarSize: 256, JPEGQuality: 85}
}

// Store saves uploaded images into blob storage. Every image gets a
// thumbnail stored next to it under the same key plus "_thumb".
type Store struct {
	storage storage.Storage
	cfg     Config
}

func NewStore(s storage.Storage, cfg Config) *Store {
	return &Store{storage: s, cfg: cfg}
}

// Save stores an image under "<app>/<uuid><ext>" and returns its key.
func (s *Store) Save(ctx context.Context, app, filename string, r io.Reader) (string, error) {
	img, ext, err := decode(filename, r)
	if err != nil {
		return "", err
	}
	return s.store(ctx, app, ext, img, img)
}

// SaveAvatar stores a square crop of the image sized for profile pictures.
func (s *Store) SaveAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	img, ext, err := decode(filename, r)
	if err != nil {
		return "", err
	}
	square := imaging.Fill(img, s.cfg.AvatarSize, s.cfg.AvatarSize, imaging.Center, imaging.Lanczos)
	return s.store(ctx, AppProfile, ext, square, square)
}

func (s *Store) store(ctx context.Context, app, ext string, img, thumbSrc image.Image) (string, error) {
	key := fmt.Sprintf("%s/%s%s", app, uuid.New().String(), ext)

	if err := s.write(ctx, key, ext, img); err != nil {
		return "", err
	}

	thumb := imaging.Fit(thumbSrc, s.cfg.ThumbWidth, s.cfg.ThumbHeight, imaging.Lanczos)
	if err := s.write(ctx, ThumbKey(key), ext, thumb); err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			l := pkglog.Ctx(ctx)
			l.Warn().Err(derr).Str(pkglog.FieldKey, key).Msg("failed to remove image after thumbnail failure")
		}
		return "", err
	}

	return key, nil
}

func (s *Store) write(ctx context.Context, key, ext string, img image.Image) error {
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, ext)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(s.cfg.JPEGQuality)); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.storage.Write(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentTypes[ext]); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key, or "" when there is no image.
func (s *Store) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.storage.URL(key)
}

// ThumbURL returns the public URL of the thumbnail of key.
func (s *Store) ThumbURL(key string) string {
	if key == "" {
		return ""
	}
	return s.storage.URL(ThumbKey(key))
}

// Delete removes an image and its thumbnail.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return err
	}
	return s.storage.Delete(ctx, ThumbKey(key))
}

// CleanupEmbedded deletes the editor uploads referenced by markup. Only keys
// under AppUploads are touched. It returns the first failure after trying
// every image.
func (s *Store) CleanupEmbedded(ctx context.Context, markup string) error {
	prefix := s.storage.URL(AppUploads + "/")
	var firstErr error
	for _, src := range content.ImageSources(markup) {
		if !strings.HasPrefix(src, prefix) {
			continue
		}
		name := strings.TrimPrefix(src, prefix)
		if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
			continue
		}
		if err := s.Delete(ctx, AppUploads+"/"+name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ThumbKey returns the key of the thumbnail stored for key.
func ThumbKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + thumbSuffix + ext
}

func decode(filename string, r io.Reader) (image.Image, string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := contentTypes[ext]; !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedImage, filename)
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, ext, nil
}
