package service

import (
	"context"
	"fmt"

	"fleamarket/internal/repository"

	"go.uber.org/zap"
)

// FavoriteService toggles and counts item bookmarks
type FavoriteService interface {
	Attach(ctx context.Context, userID, itemID int64) error
	Detach(ctx context.Context, userID, itemID int64) error
	CountFavorites(ctx context.Context, itemID int64) (int, error)
	IsFavoritedBy(ctx context.Context, itemID, userID int64) (bool, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	itemRepo     repository.ItemRepository
	logger       *zap.Logger
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, itemRepo repository.ItemRepository, logger *zap.Logger) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		itemRepo:     itemRepo,
		logger:       logger,
	}
}

// Attach bookmarks an item. Repeated calls succeed without duplicating.
func (s *favoriteService) Attach(ctx context.Context, userID, itemID int64) error {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return err
	}

	if err := s.favoriteRepo.Attach(ctx, userID, itemID); err != nil {
		s.logger.Warn("Failed to attach favorite",
			zap.Int64("user_id", userID),
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		return ErrFavoriteAttachFailed
	}
	return nil
}

// Detach removes a bookmark; a missing one is not an error
func (s *favoriteService) Detach(ctx context.Context, userID, itemID int64) error {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return err
	}

	if err := s.favoriteRepo.Detach(ctx, userID, itemID); err != nil {
		s.logger.Warn("Failed to detach favorite",
			zap.Int64("user_id", userID),
			zap.Int64("item_id", itemID),
			zap.Error(err),
		)
		return ErrFavoriteDetachFailed
	}
	return nil
}

func (s *favoriteService) CountFavorites(ctx context.Context, itemID int64) (int, error) {
	count, err := s.favoriteRepo.Count(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

func (s *favoriteService) IsFavoritedBy(ctx context.Context, itemID, userID int64) (bool, error) {
	favorited, err := s.favoriteRepo.IsFavorited(ctx, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return favorited, nil
}
