package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omar-ramo/yawm/pkg/storage"
)

func newStore(t *testing.T) (*Store, storage.Storage) {
	t.Helper()
	backend, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), PublicURL: "/media"})
	require.NoError(t, err)
	return NewStore(backend, DefaultConfig()), backend
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStore_SaveWritesImageAndThumbnail(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, AppDiary, "Photo.PNG", bytes.NewReader(pngBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "diary/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	ok, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := backend.Read(ctx, ThumbKey(key))
	require.NoError(t, err)
	defer rc.Close()
	thumb, err := png.Decode(rc)
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 300)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), 300)
}

func TestStore_SaveAvatarIsSquare(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	key, err := s.SaveAvatar(ctx, "me.png", bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "profile/"))

	rc, err := backend.Read(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	img, err := png.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestStore_RejectsNonImages(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Save(context.Background(), AppUploads, "notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = s.Save(context.Background(), AppUploads, "fake.png", strings.NewReader("not a png"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestStore_DeleteRemovesThumbnail(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, AppDiary, "a.png", bytes.NewReader(pngBytes(t, 50, 50)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, key))

	for _, k := range []string{key, ThumbKey(key)} {
		ok, err := backend.Exists(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
}

func TestStore_CleanupEmbedded(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, AppUploads, "a.png", bytes.NewReader(pngBytes(t, 50, 50)))
	require.NoError(t, err)

	markup := `<p>hi</p><img src="` + s.URL(key) + `"><img src="https://example.com/x.png">`
	require.NoError(t, s.CleanupEmbedded(ctx, markup))

	ok, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CleanupEmbeddedKeepsOtherApps(t *testing.T) {
	s, backend := newStore(t)
	ctx := context.Background()

	avatar, err := s.SaveAvatar(ctx, "me.png", bytes.NewReader(pngBytes(t, 50, 50)))
	require.NoError(t, err)
	header, err := s.Save(ctx, AppDiary, "h.png", bytes.NewReader(pngBytes(t, 50, 50)))
	require.NoError(t, err)

	markup := `<img src="` + s.URL(avatar) + `"><img src="` + s.URL(header) + `">` +
		`<img src="` + s.URL(AppUploads+"/../"+avatar) + `">`
	require.NoError(t, s.CleanupEmbedded(ctx, markup))

	for _, key := range []string{avatar, header, ThumbKey(header)} {
		ok, err := backend.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
}

func TestThumbKey(t *testing.T) {
	assert.Equal(t, "diary/abc_thumb.jpg", ThumbKey("diary/abc.jpg"))
}

func TestStore_URL(t *testing.T) {
	s, _ := newStore(t)
	assert.Equal(t, "", s.URL(""))
	assert.Equal(t, "/media/diary/a.png", s.URL("diary/a.png"))
	assert.Equal(t, "/media/diary/a_thumb.png", s.ThumbURL("diary/a.png"))
}
