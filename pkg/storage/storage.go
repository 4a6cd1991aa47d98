package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	cfg "github.com/feichai0017/correspondence-tracker/config"
	"github.com/feichai0017/correspondence-tracker/pkg/logger"
	"github.com/feichai0017/correspondence-tracker/pkg/storage/local"
	"github.com/feichai0017/correspondence-tracker/pkg/storage/minio"
	"github.com/feichai0017/correspondence-tracker/pkg/storage/s3"
)

// ErrNotFound is returned (wrapped) by every backend for a missing key.
var ErrNotFound = fs.ErrNotExist

// StorageType selects the backend holding uploaded PDFs.
type StorageType string

const (
	StorageTypeLocal StorageType = cfg.StorageLocal
	StorageTypeS3    StorageType = cfg.StorageS3
	StorageTypeMinio StorageType = cfg.StorageMinio
)

// Storage keeps uploaded files under slash separated keys such as
// "temp/temp_20250102_101500_oficio.pdf".
type Storage interface {
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects under prefix last modified before
	// threshold and returns how many were removed.
	CleanupBefore(ctx context.Context, prefix string, threshold time.Time) (int, error)
}

// NewStorage builds the backend named by app.StorageBackend.
func NewStorage(ctx context.Context, app *cfg.AppConfig, log logger.Logger) (Storage, error) {
	log = log.Named("storage")
	switch StorageType(app.StorageBackend) {
	case StorageTypeLocal, "":
		return local.NewLocalStorage(app.LocalStorageDir, log)
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, cfg.GetS3Config(), log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, cfg.GetMinioConfig(), log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", app.StorageBackend)
	}
}
