package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/photogallery/server/internal/models"
)

var defaultAssetExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif", ".bmp", ".tiff", ".tif"}

// AssetStorage holds the image files of the local backends, organized by Year/Month
type AssetStorage struct {
	basePath          string
	allowedExtensions map[string]bool
	maxFileSizeBytes  int64
}

// NewAssetStorage creates an AssetStorage rooted at basePath.
// A maxFileSizeMB of zero disables the size limit.
func NewAssetStorage(basePath string, allowedExtensions []string, maxFileSizeMB int64) (*AssetStorage, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}

	if len(allowedExtensions) == 0 {
		allowedExtensions = defaultAssetExtensions
	}
	extSet := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		extSet[strings.ToLower(ext)] = true
	}

	return &AssetStorage{
		basePath:          absPath,
		allowedExtensions: extSet,
		maxFileSizeBytes:  maxFileSizeMB * 1024 * 1024,
	}, nil
}

// BasePath returns the absolute storage root
func (s *AssetStorage) BasePath() string {
	return s.basePath
}

// Store writes an asset under the Year/Month folder of dateTaken and returns
// its stored path. A file with the same name is replaced, so re-importing an
// asset is idempotent.
func (s *AssetStorage) Store(r io.Reader, filename string, dateTaken time.Time) (string, error) {
	name := sanitizeFilename(filename)
	if !s.allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", models.ErrInvalidExtension
	}

	if dateTaken.IsZero() {
		dateTaken = time.Now()
	}
	storedPath := dateTaken.Format("2006") + "/" + dateTaken.Format("01") + "/" + name

	fullPath, err := s.Resolve(storedPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	// Write to a sibling temp file so readers never see a partial asset
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	src := r
	if s.maxFileSizeBytes > 0 {
		src = io.LimitReader(r, s.maxFileSizeBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if s.maxFileSizeBytes > 0 && n > s.maxFileSizeBytes {
		return "", models.ErrFileTooLarge
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to store asset: %w", err)
	}
	return storedPath, nil
}

// Resolve returns the absolute path for a stored path, refusing anything
// that escapes the storage root.
func (s *AssetStorage) Resolve(storedPath string) (string, error) {
	if strings.TrimSpace(storedPath) == "" {
		return "", fmt.Errorf("stored path cannot be empty")
	}

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(storedPath))
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}

	if absPath == s.basePath || !strings.HasPrefix(absPath, s.basePath+string(os.PathSeparator)) {
		return "", models.ErrPathTraversal
	}
	return absPath, nil
}

// Open opens a stored asset for reading
func (s *AssetStorage) Open(storedPath string) (*os.File, fs.FileInfo, error) {
	fullPath, err := s.Resolve(storedPath)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, nil, models.ErrAssetNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

// Exists checks if a file exists at the given stored path
func (s *AssetStorage) Exists(storedPath string) bool {
	fullPath, err := s.Resolve(storedPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// sanitizeFilename removes path components and invalid characters
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	replacer := strings.NewReplacer(
		"..", "",
		"/", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	name = replacer.Replace(name)

	const maxLength = 200
	if len(name) > maxLength {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext)[:maxLength-len(ext)] + ext
	}
	return name
}

// IsSupportedFormat checks if the file extension can be decoded by the image service
func IsSupportedFormat(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".heic", ".heif":
		return true
	}
	return false
}

// IsHEIC checks if the file is HEIC/HEIF format (requires special handling)
func IsHEIC(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}
