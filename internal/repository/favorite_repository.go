package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// FavoriteRepository manages the item_user bookmark association
type FavoriteRepository interface {
	Attach(ctx context.Context, userID, itemID int64) error
	Detach(ctx context.Context, userID, itemID int64) error
	Count(ctx context.Context, itemID int64) (int, error)
	IsFavorited(ctx context.Context, itemID, userID int64) (bool, error)
}

type favoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Attach bookmarks the item; an existing pair is left untouched
func (r *favoriteRepository) Attach(ctx context.Context, userID, itemID int64) error {
	query := `
		INSERT INTO item_user (item_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (item_id, user_id) DO NOTHING
	`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, itemID, userID); err != nil {
		return fmt.Errorf("failed to attach favorite: %w", err)
	}
	return nil
}

// Detach removes the bookmark if present
func (r *favoriteRepository) Detach(ctx context.Context, userID, itemID int64) error {
	query := `DELETE FROM item_user WHERE item_id = $1 AND user_id = $2`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, itemID, userID); err != nil {
		return fmt.Errorf("failed to detach favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepository) Count(ctx context.Context, itemID int64) (int, error) {
	var count int
	err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM item_user WHERE item_id = $1`, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

func (r *favoriteRepository) IsFavorited(ctx context.Context, itemID, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM item_user WHERE item_id = $1 AND user_id = $2)`

	var favorited bool
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, itemID, userID).Scan(&favorited); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return favorited, nil
}
