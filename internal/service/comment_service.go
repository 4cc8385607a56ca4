package service

import (
	"context"
	"fmt"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
	"fleamarket/internal/validation"

	"go.uber.org/zap"
)

// CommentInput is a message left on an item
type CommentInput struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// CommentService defines the interface for item comments
type CommentService interface {
	CreateComment(ctx context.Context, principal domain.Principal, itemID int64, input CommentInput) (*domain.Comment, error)
	ListComments(ctx context.Context, itemID int64) ([]domain.Comment, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	itemRepo    repository.ItemRepository
	logger      *zap.Logger
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(commentRepo repository.CommentRepository, itemRepo repository.ItemRepository, logger *zap.Logger) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		itemRepo:    itemRepo,
		logger:      logger,
	}
}

func (s *commentService) CreateComment(ctx context.Context, principal domain.Principal, itemID int64, input CommentInput) (*domain.Comment, error) {
	input.Message = strings.TrimSpace(input.Message)
	if err := validation.Struct(&input); err != nil {
		return nil, err
	}

	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ItemID:  itemID,
		UserID:  principal.UserID,
		Message: input.Message,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.logger.Error("Failed to create comment", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	return comment, nil
}

// ListComments returns the comments of an existing item, oldest first
func (s *commentService) ListComments(ctx context.Context, itemID int64) ([]domain.Comment, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
