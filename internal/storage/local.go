package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPath is returned for paths that escape the storage root
var ErrInvalidPath = errors.New("invalid storage path")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStorage archives uploaded manifest workbooks on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// UploadFromBytes saves data under subDir/YYYY/MM and returns the relative
// path. The original name is kept after a unique prefix so operators can
// recognise the file.
func (s *LocalStorage) UploadFromBytes(data []byte, filename string, subDir string) (string, error) {
	dir := filepath.Join(s.basePath, subDir, time.Now().Format("2006/01"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(dir, fmt.Sprintf("%s_%s", uuid.NewString()[:8], sanitizeFilename(filename)))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath, _ := filepath.Rel(s.basePath, filePath)
	return relPath, nil
}

// Open returns an archived file for reading
func (s *LocalStorage) Open(relativePath string) (*os.File, error) {
	fullPath, err := s.SafeFullPath(relativePath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(relativePath string) bool {
	fullPath, err := s.SafeFullPath(relativePath)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// SafeFullPath resolves relativePath under the storage root
func (s *LocalStorage) SafeFullPath(relativePath string) (string, error) {
	if relativePath == "" || filepath.IsAbs(relativePath) {
		return "", ErrInvalidPath
	}
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(base, relativePath)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func sanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(filepath.Base(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
