package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleamarket/internal/domain"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryRepository defines the interface for category data access.
// Categories are seeded by migrations and read-only at runtime.
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
	ListByParent(ctx context.Context, parentID *int64) ([]*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List retrieves all categories ordered by id
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name, parent_id
		FROM categories
		ORDER BY id ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return scanCategories(rows)
}

// ListByParent retrieves the direct children of a category, or the roots
// when parentID is nil
func (r *categoryRepository) ListByParent(ctx context.Context, parentID *int64) ([]*domain.Category, error) {
	query := `
		SELECT id, name, parent_id
		FROM categories
		WHERE parent_id IS NOT DISTINCT FROM $1
		ORDER BY id ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, nullableID(parentID))
	if err != nil {
		return nil, fmt.Errorf("failed to list child categories: %w", err)
	}
	return scanCategories(rows)
}

// FindByID retrieves a category by id
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, parent_id
		FROM categories
		WHERE id = $1
	`

	var parent sql.NullInt64
	category := &domain.Category{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&parent,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	category.ParentID = idPointer(parent)

	return category, nil
}

func scanCategories(rows *sql.Rows) ([]*domain.Category, error) {
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		var parent sql.NullInt64
		category := &domain.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.ParentID = idPointer(parent)
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
