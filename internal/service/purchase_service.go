package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
	"fleamarket/internal/validation"

	"go.uber.org/zap"
)

// PurchaseInput is the checkout form. StatusID is accepted for
// compatibility with older clients and ignored: purchases always start
// confirmed.
type PurchaseInput struct {
	ItemID      int64  `json:"item_id" validate:"required,gt=0"`
	PaymentID   int64  `json:"payment_id" validate:"required,gt=0"`
	ShipAddress string `json:"ship_address" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	StatusID    int64  `json:"status_id,omitempty"`
}

// PurchaseService defines the interface for checkout and order tracking
type PurchaseService interface {
	CreatePurchase(ctx context.Context, principal domain.Principal, input PurchaseInput) (*domain.Purchase, error)
	UpdateStatus(ctx context.Context, principal domain.Principal, purchaseID, statusID int64) (*domain.Purchase, error)
	GetReceipt(ctx context.Context, principal domain.Principal, purchaseID int64) (*domain.Receipt, error)
	ListPurchases(ctx context.Context, purchaserID int64) ([]domain.Purchase, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	itemRepo     repository.ItemRepository
	refRepo      repository.ReferenceRepository
	strictStatus bool
	logger       *zap.Logger
}

// NewPurchaseService creates a new instance of PurchaseService. With
// strictStatus the status lifecycle is enforced, otherwise any seeded
// status may follow any other.
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	itemRepo repository.ItemRepository,
	refRepo repository.ReferenceRepository,
	strictStatus bool,
	logger *zap.Logger,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		itemRepo:     itemRepo,
		refRepo:      refRepo,
		strictStatus: strictStatus,
		logger:       logger,
	}
}

// CreatePurchase records a checkout by the principal. Concurrent purchases
// of the same item are not prevented.
func (s *purchaseService) CreatePurchase(ctx context.Context, principal domain.Principal, input PurchaseInput) (*domain.Purchase, error) {
	input.ShipAddress = strings.TrimSpace(input.ShipAddress)
	input.Email = strings.TrimSpace(input.Email)

	var errs validation.Errors
	if err := validation.Struct(&input); err != nil {
		verrs, ok := validation.As(err)
		if !ok {
			return nil, fmt.Errorf("failed to validate purchase: %w", err)
		}
		errs = verrs
	}

	if input.PaymentID > 0 {
		if _, err := s.refRepo.FindPayment(ctx, input.PaymentID); err != nil {
			if !errors.Is(err, repository.ErrPaymentNotFound) {
				return nil, fmt.Errorf("failed to resolve payment: %w", err)
			}
			errs = errs.Add("payment_id", "payment method does not exist")
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.itemRepo.FindByID(ctx, input.ItemID); err != nil {
		return nil, err
	}

	purchaserID := principal.UserID
	purchase := &domain.Purchase{
		ItemID:      input.ItemID,
		PurchaserID: &purchaserID,
		StatusID:    domain.StatusConfirmed,
		ShipAddress: input.ShipAddress,
		PaymentID:   input.PaymentID,
		Email:       input.Email,
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		s.logger.Error("Failed to create purchase",
			zap.Int64("item_id", input.ItemID),
			zap.Int64("purchaser_id", purchaserID),
			zap.Error(err),
		)
		return nil, ErrOperationFailed
	}

	s.logger.Info("Purchase created",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("item_id", purchase.ItemID),
	)

	created, err := s.purchaseRepo.FindByID(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase: %w", err)
	}
	return created, nil
}

// canSee reports whether the principal is party to the purchase
func (s *purchaseService) canSee(ctx context.Context, principal domain.Principal, purchaserID *int64, itemID int64) (bool, error) {
	if principal.IsAdmin() || (purchaserID != nil && *purchaserID == principal.UserID) {
		return true, nil
	}

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return false, err
	}
	return item.SellerID == principal.UserID, nil
}

// UpdateStatus moves a purchase to another status. The seller, the buyer
// or an admin may do so.
func (s *purchaseService) UpdateStatus(ctx context.Context, principal domain.Principal, purchaseID, statusID int64) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if _, err := s.refRepo.FindStatus(ctx, statusID); err != nil {
		if errors.Is(err, repository.ErrStatusNotFound) {
			return nil, validation.Errors{}.Add("status_id", "status does not exist")
		}
		return nil, fmt.Errorf("failed to resolve status: %w", err)
	}

	allowed, err := s.canSee(ctx, principal, purchase.PurchaserID, purchase.ItemID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if purchase.StatusID == statusID && !s.strictStatus {
		return purchase, nil
	}

	if s.strictStatus && !domain.CanTransition(purchase.StatusID, statusID) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, purchaseID, purchase.StatusID, statusID); err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) || errors.Is(err, repository.ErrPurchaseStatusChanged) {
			return nil, err
		}
		s.logger.Error("Failed to update purchase status", zap.Int64("purchase_id", purchaseID), zap.Error(err))
		return nil, ErrOperationFailed
	}

	s.logger.Info("Purchase status updated",
		zap.Int64("purchase_id", purchaseID),
		zap.Int64("from", purchase.StatusID),
		zap.Int64("to", statusID),
	)

	updated, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload purchase: %w", err)
	}
	return updated, nil
}

// GetReceipt returns the confirmation view of a purchase to a party of it
func (s *purchaseService) GetReceipt(ctx context.Context, principal domain.Principal, purchaseID int64) (*domain.Receipt, error) {
	receipt, err := s.purchaseRepo.Receipt(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	isBuyer := receipt.PurchaserID != nil && *receipt.PurchaserID == principal.UserID
	if !isBuyer && !principal.Owns(receipt.SellerID) {
		return nil, ErrForbidden
	}

	return receipt, nil
}

// ListPurchases returns the buyer's purchase history, newest first
func (s *purchaseService) ListPurchases(ctx context.Context, purchaserID int64) ([]domain.Purchase, error) {
	purchases, err := s.purchaseRepo.ListByPurchaser(ctx, purchaserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}
