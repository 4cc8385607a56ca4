package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleamarket/internal/domain"
)

var (
	ErrUserDetailNotFound = errors.New("user detail not found")
	ErrUserImageNotFound  = errors.New("user image not found")
)

// ProfileRepository manages the one-per-user detail and avatar rows
type ProfileRepository interface {
	FindDetail(ctx context.Context, userID int64) (*domain.UserDetail, error)
	SaveDetail(ctx context.Context, detail *domain.UserDetail) error
	FindImage(ctx context.Context, userID int64) (*domain.UserImage, error)
	SaveImage(ctx context.Context, image *domain.UserImage) error
}

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindDetail(ctx context.Context, userID int64) (*domain.UserDetail, error) {
	query := `
		SELECT id, user_id, postal, address, building, introduction
		FROM user_details
		WHERE user_id = $1
	`

	detail := &domain.UserDetail{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&detail.ID,
		&detail.UserID,
		&detail.Postal,
		&detail.Address,
		&detail.Building,
		&detail.Introduction,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserDetailNotFound
		}
		return nil, fmt.Errorf("failed to find user detail: %w", err)
	}

	return detail, nil
}

// SaveDetail creates or replaces the detail row of detail.UserID
func (r *profileRepository) SaveDetail(ctx context.Context, detail *domain.UserDetail) error {
	query := `
		INSERT INTO user_details (user_id, postal, address, building, introduction)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET postal = EXCLUDED.postal,
		    address = EXCLUDED.address,
		    building = EXCLUDED.building,
		    introduction = EXCLUDED.introduction
		RETURNING id
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		detail.UserID,
		detail.Postal,
		detail.Address,
		detail.Building,
		detail.Introduction,
	).Scan(&detail.ID)

	if err != nil {
		return fmt.Errorf("failed to save user detail: %w", err)
	}

	return nil
}

func (r *profileRepository) FindImage(ctx context.Context, userID int64) (*domain.UserImage, error) {
	query := `
		SELECT id, user_id, image_path
		FROM user_images
		WHERE user_id = $1
	`

	image := &domain.UserImage{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&image.ID,
		&image.UserID,
		&image.ImagePath,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserImageNotFound
		}
		return nil, fmt.Errorf("failed to find user image: %w", err)
	}

	return image, nil
}

// SaveImage creates or replaces the avatar row of image.UserID
func (r *profileRepository) SaveImage(ctx context.Context, image *domain.UserImage) error {
	query := `
		INSERT INTO user_images (user_id, image_path)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET image_path = EXCLUDED.image_path
		RETURNING id
	`

	if err := executor(ctx, r.db).QueryRowContext(ctx, query, image.UserID, image.ImagePath).Scan(&image.ID); err != nil {
		return fmt.Errorf("failed to save user image: %w", err)
	}

	return nil
}
