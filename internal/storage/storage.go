package storage

import (
	"context"
	"errors"
	"fmt"
	"path"

	"fleamarket/internal/config"

	"go.uber.org/zap"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is opaque storage for uploaded files addressed by name
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes the blob; deleting a missing blob is not an error
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Namespaces for the two kinds of uploaded image
const (
	ItemImages = "images/items"
	UserImages = "images/users"
)

type scopedStore struct {
	prefix string
	inner  BlobStore
}

// Scoped returns a view of store where every name lives under prefix
func Scoped(store BlobStore, prefix string) BlobStore {
	return &scopedStore{prefix: prefix, inner: store}
}

func (s *scopedStore) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *scopedStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.key(name), data)
}

func (s *scopedStore) Get(ctx context.Context, name string) ([]byte, error) {
	return s.inner.Get(ctx, s.key(name))
}

func (s *scopedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.key(name))
}

func (s *scopedStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.inner.Exists(ctx, s.key(name))
}

// New builds the blob store selected by configuration
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (BlobStore, error) {
	switch cfg.Driver {
	case "", "local":
		logger.Info("Using local blob storage", zap.String("root", cfg.LocalRoot))
		return NewLocalStore(cfg.LocalRoot), nil
	case "s3":
		logger.Info("Using S3 blob storage",
			zap.String("bucket", cfg.S3.Bucket),
			zap.String("region", cfg.S3.Region),
		)
		return NewS3StoreFromConfig(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
