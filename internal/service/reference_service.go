package service

import (
	"context"
	"fmt"

	"fleamarket/internal/domain"
	"fleamarket/internal/repository"
)

// ReferenceData bundles the lookup tables a client needs to render forms
type ReferenceData struct {
	Categories []*domain.CategoryNode `json:"categories"`
	Conditions []*domain.Condition    `json:"conditions"`
	Payments   []*domain.Payment      `json:"payments"`
	Statuses   []*domain.Status       `json:"statuses"`
}

// ReferenceService defines the interface for the seeded lookup tables
type ReferenceService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CategoryTree(ctx context.Context) ([]*domain.CategoryNode, error)
	ChildrenOf(ctx context.Context, parentID *int64) ([]*domain.Category, error)
	ListConditions(ctx context.Context) ([]*domain.Condition, error)
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	ListStatuses(ctx context.Context) ([]*domain.Status, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	All(ctx context.Context) (*ReferenceData, error)
}

type referenceService struct {
	categoryRepo repository.CategoryRepository
	refRepo      repository.ReferenceRepository
}

// NewReferenceService creates a new instance of ReferenceService
func NewReferenceService(categoryRepo repository.CategoryRepository, refRepo repository.ReferenceRepository) ReferenceService {
	return &referenceService{
		categoryRepo: categoryRepo,
		refRepo:      refRepo,
	}
}

func (s *referenceService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// CategoryTree nests the flat category list under its roots
func (s *referenceService) CategoryTree(ctx context.Context) ([]*domain.CategoryNode, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := domain.BuildCategoryTree(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to build category tree: %w", err)
	}
	return tree, nil
}

// ChildrenOf returns the direct children of a category, or the roots for nil
func (s *referenceService) ChildrenOf(ctx context.Context, parentID *int64) ([]*domain.Category, error) {
	return s.categoryRepo.ListByParent(ctx, parentID)
}

func (s *referenceService) ListConditions(ctx context.Context) ([]*domain.Condition, error) {
	return s.refRepo.ListConditions(ctx)
}

func (s *referenceService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.refRepo.ListPayments(ctx)
}

func (s *referenceService) ListStatuses(ctx context.Context) ([]*domain.Status, error) {
	return s.refRepo.ListStatuses(ctx)
}

func (s *referenceService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.refRepo.ListRoles(ctx)
}

func (s *referenceService) All(ctx context.Context) (*ReferenceData, error) {
	tree, err := s.CategoryTree(ctx)
	if err != nil {
		return nil, err
	}

	conditions, err := s.refRepo.ListConditions(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := s.refRepo.ListPayments(ctx)
	if err != nil {
		return nil, err
	}

	statuses, err := s.refRepo.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}

	return &ReferenceData{
		Categories: tree,
		Conditions: conditions,
		Payments:   payments,
		Statuses:   statuses,
	}, nil
}
