package storage_test

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"catalogd/internal/config"
	"catalogd/internal/storage"
)

func newStore(t *testing.T, limits config.ImageLimits) (*storage.ImageStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewImageStore(dir, limits)
	require.NoError(t, err)
	return s, dir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// webpBytes is a 1x1 lossless webp, assembled by hand since neither the
// standard library nor x/image ships an encoder: RIFF container, VP8L chunk,
// the 0x2f signature, the packed width/height/alpha/version header, then a
// minimal image stream (no transforms, no color cache, five single-symbol
// prefix codes).
func webpBytes() []byte {
	return []byte{
		'R', 'I', 'F', 'F', 0x14, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P',
		'V', 'P', '8', 'L', 0x08, 0x00, 0x00, 0x00,
		0x2f, 0x00, 0x00, 0x00, 0x00, 0x88, 0x88, 0x08,
	}
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestValidate(t *testing.T) {
	limits := config.DefaultImageLimits()
	limits.MaxWidth, limits.MaxHeight = 100, 100
	s, _ := newStore(t, limits)

	tests := []struct {
		name    string
		fh      *multipart.FileHeader
		wantErr string
	}{
		{"valid png", fileHeader(t, "a.png", pngBytes(t, 10, 10)), ""},
		{"valid jpeg", fileHeader(t, "a.jpg", jpegBytes(t, 10, 10)), ""},
		{"valid webp", fileHeader(t, "a.webp", webpBytes()), ""},
		{"uppercase extension ok", fileHeader(t, "a.JPG", jpegBytes(t, 10, 10)), ""},
		{"nil header", nil, "upload failed"},
		{"bad extension", fileHeader(t, "a.gif", pngBytes(t, 10, 10)), "file type not allowed"},
		{"text masquerading as png", fileHeader(t, "a.png", []byte("hello, catalog")), "not a supported image type"},
		{"truncated image", fileHeader(t, "a.png", pngBytes(t, 10, 10)[:20]), "does not decode"},
		{"too wide", fileHeader(t, "a.png", pngBytes(t, 200, 10)), "dimensions too large"},
		{"too tall", fileHeader(t, "a.png", pngBytes(t, 10, 200)), "dimensions too large"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := s.Validate(tc.fh)
			if tc.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, v)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_SizeLimit(t *testing.T) {
	limits := config.DefaultImageLimits()
	limits.MaxBytes = 64
	s, _ := newStore(t, limits)

	_, err := s.Validate(fileHeader(t, "a.png", pngBytes(t, 50, 50)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "too large")
}

func TestValidate_Webp(t *testing.T) {
	s, _ := newStore(t, config.DefaultImageLimits())

	v, err := s.Validate(fileHeader(t, "pic.webp", webpBytes()))
	require.NoError(t, err)
	require.Equal(t, ".webp", v.Ext)
	require.Equal(t, 1, v.Width)
	require.Equal(t, 1, v.Height)

	rel, err := s.Store(v)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(rel, ".webp"))
	require.True(t, s.Exists(rel))
}

func TestStoreAndDelete(t *testing.T) {
	s, dir := newStore(t, config.DefaultImageLimits())

	v, err := s.Validate(fileHeader(t, "photo.jpeg", jpegBytes(t, 10, 10)))
	require.NoError(t, err)

	rel, err := s.Store(v)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "products/"))
	require.True(t, strings.HasSuffix(rel, ".jpeg"))
	require.True(t, s.Exists(rel))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(rel))
	require.False(t, s.Exists(rel))

	// Deleting again is fine: missing files are not an error.
	require.NoError(t, s.Delete(rel))
}

func TestStore_UniqueNames(t *testing.T) {
	s, _ := newStore(t, config.DefaultImageLimits())
	v, err := s.Validate(fileHeader(t, "a.png", pngBytes(t, 5, 5)))
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		rel, err := s.Store(v)
		require.NoError(t, err)
		require.False(t, seen[rel], "duplicate filename %s", rel)
		seen[rel] = true
	}
}

func TestDelete_RejectsTraversal(t *testing.T) {
	s, _ := newStore(t, config.DefaultImageLimits())

	for _, p := range []string{
		"../secrets.txt",
		"products/../../etc/passwd",
		"/etc/passwd",
		"",
		"products/..",
	} {
		err := s.Delete(p)
		require.ErrorIs(t, err, storage.ErrTraversal, "path %q", p)
	}
}
