package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Store is an artifact store backend.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*FileSystemStore)(nil)
	_ Store = (*S3Store)(nil)
)

// New builds the store selected by export.backend. It returns nil when
// artifacts are not persisted.
func New(ctx context.Context, exportCfg *config.ExportConfig, storageCfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	if !exportCfg.PersistArtifacts {
		return nil, nil
	}
	switch exportCfg.Backend {
	case "filesystem":
		return NewFileSystemStore(exportCfg.BasePath, exportCfg.BaseURL, logger)
	case "s3":
		s, err := NewS3Store(storageCfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", exportCfg.Backend)
	}
}
