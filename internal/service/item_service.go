package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
	"fleamarket/internal/storage"
	"fleamarket/internal/validation"

	"go.uber.org/zap"
)

// ItemInput carries the seller-editable fields of an item. Field order
// mirrors domain.ItemDetails so the two convert directly.
type ItemInput struct {
	Name        string `json:"name" validate:"required,max=40"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Brand       string `json:"brand" validate:"max=20"`
	ConditionID int64  `json:"condition_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"maxstripped=1000"`
	Price       int    `json:"price" validate:"required,min=100,max=9999999"`
}

func (in *ItemInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Description = strings.TrimSpace(in.Description)
}

// ItemService defines the interface for listing management and browsing
type ItemService interface {
	CreateItem(ctx context.Context, principal domain.Principal, input ItemInput, images []domain.ImageUpload) (*domain.Item, []domain.ItemImage, error)
	UpdateDetail(ctx context.Context, principal domain.Principal, itemID int64, input ItemInput) (*domain.Item, error)
	UpdateImages(ctx context.Context, principal domain.Principal, itemID int64, keepImageIDs []int64, images []domain.ImageUpload) ([]domain.ItemImage, error)
	DeleteItem(ctx context.Context, principal domain.Principal, itemID int64) error
	ListItems(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error)
	GetItem(ctx context.Context, itemID, viewerID int64) (*domain.ItemDetail, error)
}

type itemService struct {
	tx           repository.Transactor
	itemRepo     repository.ItemRepository
	imageRepo    repository.ItemImageRepository
	categoryRepo repository.CategoryRepository
	refRepo      repository.ReferenceRepository
	commentRepo  repository.CommentRepository
	purchaseRepo repository.PurchaseRepository
	blobs        storage.BlobStore
	logger       *zap.Logger
}

// NewItemService creates a new instance of ItemService. blobs should be
// scoped to the item image namespace.
func NewItemService(
	tx repository.Transactor,
	itemRepo repository.ItemRepository,
	imageRepo repository.ItemImageRepository,
	categoryRepo repository.CategoryRepository,
	refRepo repository.ReferenceRepository,
	commentRepo repository.CommentRepository,
	purchaseRepo repository.PurchaseRepository,
	blobs storage.BlobStore,
	logger *zap.Logger,
) ItemService {
	return &itemService{
		tx:           tx,
		itemRepo:     itemRepo,
		imageRepo:    imageRepo,
		categoryRepo: categoryRepo,
		refRepo:      refRepo,
		commentRepo:  commentRepo,
		purchaseRepo: purchaseRepo,
		blobs:        blobs,
		logger:       logger,
	}
}

// validateInput runs the field rules and resolves the category and
// condition references
func (s *itemService) validateInput(ctx context.Context, input *ItemInput) (validation.Errors, error) {
	input.trim()

	var errs validation.Errors
	if err := validation.Struct(input); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return nil, err
		}
		errs = verrs
	}

	if input.CategoryID > 0 {
		if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, err
			}
			errs = errs.Add("category_id", "category does not exist")
		}
	}

	if input.ConditionID > 0 {
		if _, err := s.refRepo.FindCondition(ctx, input.ConditionID); err != nil {
			if !errors.Is(err, repository.ErrConditionNotFound) {
				return nil, err
			}
			errs = errs.Add("condition_id", "condition does not exist")
		}
	}

	return errs, nil
}

// CreateItem validates and stores a new listing with at least one image.
// Blobs are written before their rows; if anything fails the transaction
// rolls back and the blobs already written are removed.
func (s *itemService) CreateItem(ctx context.Context, principal domain.Principal, input ItemInput, images []domain.ImageUpload) (*domain.Item, []domain.ItemImage, error) {
	errs, err := s.validateInput(ctx, &input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to validate item: %w", err)
	}
	errs = append(errs, validation.Images("files", images, true)...)
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	item := &domain.Item{SellerID: principal.UserID}
	domain.ItemDetails(input).Apply(item)

	var (
		stored     []string
		itemImages []domain.ItemImage
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return err
		}

		for _, upload := range images {
			image, err := s.addImage(ctx, item.ID, upload, &stored)
			if err != nil {
				return err
			}
			itemImages = append(itemImages, *image)
		}
		return nil
	})

	if err != nil {
		discardBlobs(ctx, s.blobs, stored, s.logger)
		s.logger.Error("Failed to create item",
			zap.Int64("seller_id", principal.UserID),
			zap.Error(err),
		)
		return nil, nil, ErrOperationFailed
	}

	s.logger.Info("Item created",
		zap.Int64("item_id", item.ID),
		zap.Int64("seller_id", item.SellerID),
		zap.Int("images", len(itemImages)),
	)
	return item, itemImages, nil
}

// addImage stores one upload and records its row. The generated blob name
// is appended to stored before the row is written.
func (s *itemService) addImage(ctx context.Context, itemID int64, upload domain.ImageUpload, stored *[]string) (*domain.ItemImage, error) {
	name, err := storeUpload(ctx, s.blobs, upload)
	if err != nil {
		return nil, fmt.Errorf("failed to store image %q: %w", upload.Filename, err)
	}
	*stored = append(*stored, name)

	image := &domain.ItemImage{ItemID: itemID, ImagePath: name}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		return nil, err
	}
	return image, nil
}

// UpdateDetail rewrites the editable fields of an item; images are untouched
func (s *itemService) UpdateDetail(ctx context.Context, principal domain.Principal, itemID int64, input ItemInput) (*domain.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !principal.Owns(item.SellerID) {
		return nil, ErrForbidden
	}

	errs, err := s.validateInput(ctx, &input)
	if err != nil {
		return nil, fmt.Errorf("failed to validate item: %w", err)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	domain.ItemDetails(input).Apply(item)
	if err := s.itemRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to update item", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	return item, nil
}

// UpdateImages reconciles the image set of an item: images not listed in
// keepImageIDs are removed and images are appended. The item row is locked
// for the duration so the prospective count check holds under concurrency.
func (s *itemService) UpdateImages(ctx context.Context, principal domain.Principal, itemID int64, keepImageIDs []int64, images []domain.ImageUpload) ([]domain.ItemImage, error) {
	if err := validation.Images("files", images, false).Err(); err != nil {
		return nil, err
	}

	keep := make(map[int64]bool, len(keepImageIDs))
	for _, id := range keepImageIDs {
		keep[id] = true
	}

	var (
		stored  []string
		removed []string
		final   []domain.ItemImage
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.LockByID(ctx, itemID)
		if err != nil {
			return err
		}

		if !principal.Owns(item.SellerID) {
			return ErrForbidden
		}

		current, err := s.imageRepo.ListByItem(ctx, itemID)
		if err != nil {
			return err
		}

		var removedIDs []int64
		for _, image := range current {
			if keep[image.ID] {
				final = append(final, image)
				continue
			}
			removedIDs = append(removedIDs, image.ID)
			removed = append(removed, image.ImagePath)
		}

		if len(final)+len(images) == 0 {
			return validation.Errors{}.Add("files", validation.MsgImageMustRemain)
		}

		for _, upload := range images {
			image, err := s.addImage(ctx, itemID, upload, &stored)
			if err != nil {
				return err
			}
			final = append(final, *image)
		}

		return s.imageRepo.DeleteByIDs(ctx, itemID, removedIDs)
	})

	if err != nil {
		discardBlobs(ctx, s.blobs, stored, s.logger)
		if passThrough(err) {
			return nil, err
		}
		s.logger.Error("Failed to update item images", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	discardBlobs(ctx, s.blobs, removed, s.logger)

	s.logger.Info("Item images updated",
		zap.Int64("item_id", itemID),
		zap.Int("added", len(stored)),
		zap.Int("removed", len(removed)),
	)
	return final, nil
}

// DeleteItem removes an item with everything hanging off it, then its blobs
func (s *itemService) DeleteItem(ctx context.Context, principal domain.Principal, itemID int64) error {
	var removed []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.itemRepo.LockByID(ctx, itemID)
		if err != nil {
			return err
		}

		if !principal.Owns(item.SellerID) {
			return ErrForbidden
		}

		images, err := s.imageRepo.ListByItem(ctx, itemID)
		if err != nil {
			return err
		}
		for _, image := range images {
			removed = append(removed, image.ImagePath)
		}

		return s.itemRepo.Delete(ctx, itemID)
	})

	if err != nil {
		if passThrough(err) {
			return err
		}
		s.logger.Error("Failed to delete item", zap.Int64("item_id", itemID), zap.Error(err))
		return ErrOperationFailed
	}

	discardBlobs(ctx, s.blobs, removed, s.logger)

	s.logger.Info("Item deleted", zap.Int64("item_id", itemID), zap.Int64("by", principal.UserID))
	return nil
}

// ListItems returns annotated listings for the viewer; viewerID 0 is an
// anonymous visitor
func (s *itemService) ListItems(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error) {
	items, err := s.itemRepo.List(ctx, viewerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// GetItem returns the full view of one item
func (s *itemService) GetItem(ctx context.Context, itemID, viewerID int64) (*domain.ItemDetail, error) {
	summary, err := s.itemRepo.FindSummary(ctx, itemID, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	comments, err := s.commentRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	purchases, err := s.purchaseRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	return &domain.ItemDetail{
		ItemSummary: *summary,
		Comments:    comments,
		Purchases:   purchases,
	}, nil
}
