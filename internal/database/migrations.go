package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path"

	"fleamarket/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// migrationFS reads migrations from dir, or from the copy embedded in the
// binary when dir is empty
func migrationFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func newProvider(db *sql.DB, dir string) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrationFS(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return provider, nil
}

// RunMigrations applies every pending schema and seed migration
func RunMigrations(ctx context.Context, db *sql.DB, dir string, logger *zap.Logger) error {
	provider, err := newProvider(db, dir)
	if err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...", zap.String("dir", dir))

	results, err := provider.Up(ctx)
	for _, res := range results {
		logger.Info("Applied migration",
			zap.Int64("version", res.Source.Version),
			zap.String("file", path.Base(res.Source.Path)),
			zap.Duration("duration", res.Duration),
		)
	}
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Migrations completed successfully",
		zap.Int64("version", version),
		zap.Int("applied", len(results)),
	)
	return nil
}

// GetMigrationStatus reports the applied/pending state of each migration
func GetMigrationStatus(ctx context.Context, db *sql.DB, dir string) ([]*goose.MigrationStatus, error) {
	provider, err := newProvider(db, dir)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}
