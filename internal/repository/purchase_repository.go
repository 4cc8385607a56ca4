package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleamarket/internal/domain"
)

var (
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrPurchaseStatusChanged = errors.New("purchase status was changed concurrently")
)

// PurchaseRepository defines the interface for purchase data access
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	FindByID(ctx context.Context, id int64) (*domain.Purchase, error)
	UpdateStatus(ctx context.Context, id, fromStatusID, toStatusID int64) error
	ListByPurchaser(ctx context.Context, purchaserID int64) ([]domain.Purchase, error)
	ListByItem(ctx context.Context, itemID int64) ([]domain.Purchase, error)
	Receipt(ctx context.Context, id int64) (*domain.Receipt, error)
}

type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository creates a new instance of PurchaseRepository
func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

const purchaseSelect = `
		SELECT p.id, p.item_id, p.purchaser_id, p.status_id, p.ship_address, p.payment_id,
		       p.email, p.created_at, p.updated_at, s.name, pm.name, COALESCE(u.name, '')
		FROM purchases p
		JOIN statuses s ON s.id = p.status_id
		JOIN payments pm ON pm.id = p.payment_id
		LEFT JOIN users u ON u.id = p.purchaser_id
`

// Create inserts a purchase with the status it carries
func (r *purchaseRepository) Create(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		INSERT INTO purchases (item_id, purchaser_id, status_id, ship_address, payment_id, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		purchase.ItemID,
		nullableID(purchase.PurchaserID),
		purchase.StatusID,
		purchase.ShipAddress,
		purchase.PaymentID,
		purchase.Email,
	).Scan(&purchase.ID, &purchase.CreatedAt, &purchase.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

// FindByID retrieves a purchase with its status, payment and buyer names
func (r *purchaseRepository) FindByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	purchases, err := r.list(ctx, purchaseSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}

	if len(purchases) == 0 {
		return nil, ErrPurchaseNotFound
	}

	return &purchases[0], nil
}

// UpdateStatus moves a purchase to a new status provided it is still in
// fromStatusID
func (r *purchaseRepository) UpdateStatus(ctx context.Context, id, fromStatusID, toStatusID int64) error {
	query := `
		UPDATE purchases
		SET status_id = $3
		WHERE id = $1 AND status_id = $2
	`

	db := executor(ctx, r.db)
	result, err := db.ExecContext(ctx, query, id, fromStatusID, toStatusID)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM purchases WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check purchase: %w", err)
		}
		if !exists {
			return ErrPurchaseNotFound
		}
		return ErrPurchaseStatusChanged
	}

	return nil
}

// ListByPurchaser retrieves a buyer's purchases, newest first
func (r *purchaseRepository) ListByPurchaser(ctx context.Context, purchaserID int64) ([]domain.Purchase, error) {
	return r.list(ctx, purchaseSelect+` WHERE p.purchaser_id = $1 ORDER BY p.id DESC`, purchaserID)
}

// ListByItem retrieves the purchases of an item, oldest first
func (r *purchaseRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.Purchase, error) {
	return r.list(ctx, purchaseSelect+` WHERE p.item_id = $1 ORDER BY p.id ASC`, itemID)
}

func (r *purchaseRepository) list(ctx context.Context, query string, arg int64) ([]domain.Purchase, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []domain.Purchase{}
	for rows.Next() {
		var (
			purchase    domain.Purchase
			purchaserID sql.NullInt64
		)
		err := rows.Scan(
			&purchase.ID,
			&purchase.ItemID,
			&purchaserID,
			&purchase.StatusID,
			&purchase.ShipAddress,
			&purchase.PaymentID,
			&purchase.Email,
			&purchase.CreatedAt,
			&purchase.UpdatedAt,
			&purchase.StatusName,
			&purchase.PaymentName,
			&purchase.PurchaserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchase.PurchaserID = idPointer(purchaserID)
		purchases = append(purchases, purchase)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return purchases, nil
}

// Receipt projects a purchase joined with its item, seller, payment and status
func (r *purchaseRepository) Receipt(ctx context.Context, id int64) (*domain.Receipt, error) {
	query := `
		SELECT p.id, i.id, i.name, i.price, i.seller_id, seller.name,
		       p.purchaser_id, COALESCE(buyer.name, ''), p.ship_address, pm.name,
		       p.status_id, s.name, p.email, p.created_at
		FROM purchases p
		JOIN items i ON i.id = p.item_id
		JOIN users seller ON seller.id = i.seller_id
		LEFT JOIN users buyer ON buyer.id = p.purchaser_id
		JOIN payments pm ON pm.id = p.payment_id
		JOIN statuses s ON s.id = p.status_id
		WHERE p.id = $1
	`

	var purchaserID sql.NullInt64
	receipt := &domain.Receipt{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&receipt.PurchaseID,
		&receipt.ItemID,
		&receipt.ItemName,
		&receipt.ItemPrice,
		&receipt.SellerID,
		&receipt.SellerName,
		&purchaserID,
		&receipt.PurchaserName,
		&receipt.ShipAddress,
		&receipt.PaymentName,
		&receipt.StatusID,
		&receipt.StatusName,
		&receipt.Email,
		&receipt.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	receipt.PurchaserID = idPointer(purchaserID)

	return receipt, nil
}
