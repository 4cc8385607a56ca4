package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fleamarket/internal/domain"
)

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByItem(ctx context.Context, itemID int64) ([]domain.Comment, error)
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new instance of CommentRepository
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment and fills in its id, timestamp and author name
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		WITH inserted AS (
			INSERT INTO comments (item_id, user_id, message)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, created_at
		)
		SELECT inserted.id, inserted.created_at, u.name
		FROM inserted
		JOIN users u ON u.id = inserted.user_id
	`

	err := executor(ctx, r.db).QueryRowContext(ctx, query, comment.ItemID, comment.UserID, comment.Message).
		Scan(&comment.ID, &comment.CreatedAt, &comment.AuthorName)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// ListByItem retrieves the comments of an item, oldest first
func (r *commentRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.item_id, c.user_id, c.message, u.name, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.item_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.ItemID,
			&comment.UserID,
			&comment.Message,
			&comment.AuthorName,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}
