package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// FileSystemStore keeps export artifacts under a local directory that the
// HTTP server exposes at BaseURL.
type FileSystemStore struct {
	basePath string
	baseURL  string
	logger   *zap.Logger
}

// NewFileSystemStore creates the base directory if needed.
func NewFileSystemStore(basePath, baseURL string, logger *zap.Logger) (*FileSystemStore, error) {
	if basePath == "" {
		return nil, errors.New("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Save writes data to key and returns the URL it is served at.
func (s *FileSystemStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}

	url := s.URL(key)
	s.logger.Info("Artifact stored",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
		zap.String("url", url))
	return url, nil
}

// Open returns a reader for the artifact at key.
func (s *FileSystemStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Delete removes the artifact at key. A missing file is not an error.
func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key.
func (s *FileSystemStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}

// resolve maps key to a path under basePath, rejecting traversal.
func (s *FileSystemStore) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			s.logger.Warn("blocked storage key", zap.String("key", key))
			return "", ErrInvalidKey
		}
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return absPath, nil
}
