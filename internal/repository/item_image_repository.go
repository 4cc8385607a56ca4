package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fleamarket/internal/domain"
)

// ItemImageRepository defines the interface for item image data access
type ItemImageRepository interface {
	Create(ctx context.Context, image *domain.ItemImage) error
	ListByItem(ctx context.Context, itemID int64) ([]domain.ItemImage, error)
	DeleteByIDs(ctx context.Context, itemID int64, ids []int64) error
	ListPathsBySeller(ctx context.Context, sellerID int64) ([]string, error)
}

type itemImageRepository struct {
	db *sql.DB
}

// NewItemImageRepository creates a new instance of ItemImageRepository
func NewItemImageRepository(db *sql.DB) ItemImageRepository {
	return &itemImageRepository{db: db}
}

// Create records a stored image against its item
func (r *itemImageRepository) Create(ctx context.Context, image *domain.ItemImage) error {
	query := `
		INSERT INTO item_images (item_id, image_path)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := executor(ctx, r.db).QueryRowContext(ctx, query, image.ItemID, image.ImagePath).
		Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item image: %w", err)
	}

	return nil
}

// ListByItem retrieves the images of an item in upload order
func (r *itemImageRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.ItemImage, error) {
	images, err := imagesByItem(ctx, executor(ctx, r.db), []int64{itemID})
	if err != nil {
		return nil, err
	}

	if list, ok := images[itemID]; ok {
		return list, nil
	}
	return []domain.ItemImage{}, nil
}

// DeleteByIDs removes image rows of one item; ids belonging to other items
// are left alone
func (r *itemImageRepository) DeleteByIDs(ctx context.Context, itemID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM item_images WHERE item_id = $1 AND id = ANY($2)`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, itemID, ids); err != nil {
		return fmt.Errorf("failed to delete item images: %w", err)
	}

	return nil
}

// ListPathsBySeller retrieves the blob names of every image of every item
// the user sells
func (r *itemImageRepository) ListPathsBySeller(ctx context.Context, sellerID int64) ([]string, error) {
	query := `
		SELECT ii.image_path
		FROM item_images ii
		JOIN items i ON i.id = ii.item_id
		WHERE i.seller_id = $1
		ORDER BY ii.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller images: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan image path: %w", err)
		}
		paths = append(paths, path)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image paths: %w", err)
	}

	return paths, nil
}

func imagesByItem(ctx context.Context, db DBTX, itemIDs []int64) (map[int64][]domain.ItemImage, error) {
	query := `
		SELECT id, item_id, image_path, created_at
		FROM item_images
		WHERE item_id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := db.QueryContext(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list item images: %w", err)
	}
	defer rows.Close()

	images := make(map[int64][]domain.ItemImage, len(itemIDs))
	for rows.Next() {
		var image domain.ItemImage
		if err := rows.Scan(&image.ID, &image.ItemID, &image.ImagePath, &image.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item image: %w", err)
		}
		images[image.ItemID] = append(images[image.ItemID], image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item images: %w", err)
	}

	return images, nil
}
