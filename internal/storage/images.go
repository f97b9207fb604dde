package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"catalogd/internal/config"
)

var allowedExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

var allowedMIMEs = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

var allowedFormats = map[string]bool{"jpeg": true, "png": true, "webp": true}

// ErrTraversal is returned for any relative path containing a parent-directory
// segment. Such paths never reach the filesystem.
var ErrTraversal = errors.New("path traversal rejected")

// ValidatedImage is an upload that passed every check and is ready to store.
type ValidatedImage struct {
	Ext    string // includes the dot, lower-cased
	Data   []byte
	Width  int
	Height int
}

// ImageStore validates and persists product images under a fixed media root.
// Writes are plain file I/O: they are NOT covered by any database transaction,
// the mutation engine compensates by deleting the paths it wrote.
type ImageStore struct {
	root   string // absolute media root
	subdir string // directory under root for product images
	limits config.ImageLimits
}

func NewImageStore(mediaDir string, limits config.ImageLimits) (*ImageStore, error) {
	abs, err := filepath.Abs(mediaDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "products"), 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{root: abs, subdir: "products", limits: limits}, nil
}

// Validate runs the acceptance checks in order; the first failure wins and is
// returned as the error. A rejected file leaves no side effects.
func (s *ImageStore) Validate(fh *multipart.FileHeader) (*ValidatedImage, error) {
	if fh == nil {
		return nil, errors.New("upload failed")
	}
	if fh.Size > s.limits.MaxBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", s.limits.MaxBytes)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		return nil, errors.New("file type not allowed (jpg, jpeg, png, webp)")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("upload failed")
	}
	defer f.Close()
	// MaxBytes+1 so an understating Size header still cannot slip through.
	data, err := io.ReadAll(io.LimitReader(f, s.limits.MaxBytes+1))
	if err != nil {
		return nil, errors.New("upload failed")
	}
	if int64(len(data)) > s.limits.MaxBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", s.limits.MaxBytes)
	}

	return s.validateBytes(ext, data)
}

func (s *ImageStore) validateBytes(ext string, data []byte) (*ValidatedImage, error) {
	// Sniff content, never trust the client-declared type.
	if mime := http.DetectContentType(data); !allowedMIMEs[mime] {
		return nil, errors.New("file content is not a supported image type")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New("file does not decode as an image")
	}
	if cfg.Width > s.limits.MaxWidth || cfg.Height > s.limits.MaxHeight {
		return nil, fmt.Errorf("image dimensions too large (max %dx%d)", s.limits.MaxWidth, s.limits.MaxHeight)
	}
	if !allowedFormats[format] {
		return nil, errors.New("image format not allowed")
	}
	return &ValidatedImage{Ext: ext, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// Store writes a validated image under the media root and returns its path
// relative to that root. The filename is collision-resistant: nanosecond
// timestamp plus a uuid fragment, original extension preserved.
func (s *ImageStore) Store(v *ValidatedImage) (string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString()[:8], v.Ext)
	rel := filepath.ToSlash(filepath.Join(s.subdir, name))
	if err := os.WriteFile(filepath.Join(s.root, s.subdir, name), v.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return rel, nil
}

// Delete removes a previously stored image. Missing files are fine (the call
// is idempotent); traversal segments are rejected before touching the disk.
func (s *ImageStore) Delete(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func (s *ImageStore) Exists(rel string) bool {
	full, err := s.resolve(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *ImageStore) resolve(rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "..") || strings.ContainsRune(rel, 0) {
		return "", ErrTraversal
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || strings.Contains(clean, "..") {
		return "", ErrTraversal
	}
	return filepath.Join(s.root, clean), nil
}
