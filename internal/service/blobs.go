package service

import (
	"context"
	"time"

	"fleamarket/internal/domain"
	"fleamarket/internal/storage"

	"go.uber.org/zap"
)

// storeUpload writes an upload under a freshly generated name
func storeUpload(ctx context.Context, store storage.BlobStore, upload domain.ImageUpload) (string, error) {
	name, err := storage.GenerateName(time.Now(), upload.Filename)
	if err != nil {
		return "", err
	}
	if err := store.Put(ctx, name, upload.Data); err != nil {
		return "", err
	}
	return name, nil
}

// discardBlobs removes blobs no row points at any more. It runs after the
// owning transaction settled, so failures only leave orphans behind and are
// logged rather than returned.
func discardBlobs(ctx context.Context, store storage.BlobStore, names []string, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	for _, name := range names {
		if name == "" {
			continue
		}

		exists, err := store.Exists(ctx, name)
		if err != nil {
			logger.Warn("Failed to check blob before delete", zap.String("blob", name), zap.Error(err))
			continue
		}
		if !exists {
			continue
		}

		if err := store.Delete(ctx, name); err != nil {
			logger.Warn("Failed to delete orphaned blob", zap.String("blob", name), zap.Error(err))
		}
	}
}
