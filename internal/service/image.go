package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"aihouse/internal/config"
)

// ImageStore saves uploaded property images under random filenames and
// generates square thumbnails alongside them.
type ImageStore struct {
	baseDir    string
	thumbDir   string
	thumbSize  int
	maxBytes   int64
	allowedExt map[string]bool
}

func NewImageStore(cfg *config.UploadConfig) (*ImageStore, error) {
	baseDir := cfg.Dir
	thumbDir := filepath.Join(baseDir, "thumbnails")
	for _, dir := range []string{baseDir, thumbDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}

	allowed := map[string]bool{}
	for _, ext := range strings.Split(cfg.AllowedExtensions, ",") {
		ext = strings.TrimSpace(strings.ToLower(ext))
		if ext != "" {
			allowed["."+strings.TrimPrefix(ext, ".")] = true
		}
	}

	return &ImageStore{
		baseDir:    baseDir,
		thumbDir:   thumbDir,
		thumbSize:  cfg.ThumbnailSize,
		maxBytes:   int64(cfg.MaxSizeMB) << 20,
		allowedExt: allowed,
	}, nil
}

// MaxBytes is the upload size limit in bytes.
func (s *ImageStore) MaxBytes() int64 { return s.maxBytes }

// Allowed reports whether the filename has an accepted image extension.
func (s *ImageStore) Allowed(filename string) bool {
	return s.allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// Save writes the image under a uuid filename and generates a thumbnail.
// Returns the stored filename.
func (s *ImageStore) Save(src io.Reader, originalFilename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if !s.allowedExt[ext] {
		return "", fmt.Errorf("unsupported image extension: %s", ext)
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.baseDir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	if err := s.writeThumbnail(path, filename); err != nil {
		os.Remove(path)
		return "", err
	}
	return filename, nil
}

func (s *ImageStore) writeThumbnail(path, filename string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := imaging.Fit(img, s.thumbSize, s.thumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(s.thumbDir, filename)); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// Path returns the on-disk path for a stored image filename.
func (s *ImageStore) Path(filename string) string {
	return filepath.Join(s.baseDir, filepath.Base(filename))
}

// ThumbnailPath returns the on-disk path for a stored thumbnail.
func (s *ImageStore) ThumbnailPath(filename string) string {
	return filepath.Join(s.thumbDir, filepath.Base(filename))
}

// Remove deletes the image and its thumbnail, ignoring files already gone.
func (s *ImageStore) Remove(filename string) {
	base := filepath.Base(filename)
	os.Remove(filepath.Join(s.baseDir, base))
	os.Remove(filepath.Join(s.thumbDir, base))
}
