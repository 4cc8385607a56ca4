package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fleamarket/internal/domain"
)

var (
	ErrItemNotFound = errors.New("item not found")
)

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Item, error)
	LockByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error)
	FindSummary(ctx context.Context, id, viewerID int64) (*domain.ItemSummary, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `i.id, i.name, i.description, i.condition_id, i.price, i.brand,
		       i.seller_id, i.category_id, i.created_at, i.updated_at`

// Create inserts a new item and fills in the generated id and timestamps
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (name, description, condition_id, price, brand, seller_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		item.Name,
		item.Description,
		item.ConditionID,
		item.Price,
		item.Brand,
		item.SellerID,
		item.CategoryID,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// Update writes the seller-editable fields of an item
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET name = $2, description = $3, condition_id = $4, price = $5,
		    brand = $6, category_id = $7
		WHERE id = $1
		RETURNING updated_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.ConditionID,
		item.Price,
		item.Brand,
		item.CategoryID,
	).Scan(&item.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// Delete removes an item; images, favorites, comments and purchases cascade
func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// FindByID retrieves an item by id
func (r *itemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	return r.findOne(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = $1`, id)
}

// LockByID retrieves an item and holds its row lock until the surrounding
// transaction ends. Concurrent image-set changes on the same item queue here.
func (r *itemRepository) LockByID(ctx context.Context, id int64) (*domain.Item, error) {
	return r.findOne(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = $1 FOR UPDATE`, id)
}

func (r *itemRepository) findOne(ctx context.Context, query string, id int64) (*domain.Item, error) {
	item := &domain.Item{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ConditionID,
		&item.Price,
		&item.Brand,
		&item.SellerID,
		&item.CategoryID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

// List retrieves annotated items, newest first, with optional seller,
// category and keyword filtering
func (r *itemRepository) List(ctx context.Context, viewerID int64, filter domain.ItemFilter) ([]*domain.ItemSummary, error) {
	conditions := []string{}
	args := []interface{}{viewerID}
	argIndex := 2

	if filter.SellerID != nil {
		conditions = append(conditions, fmt.Sprintf("i.seller_id = $%d", argIndex))
		args = append(args, *filter.SellerID)
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(i.name ILIKE $%d OR i.brand ILIKE $%d OR i.description ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+keyword+"%")
	}

	return r.summaries(ctx, conditions, args)
}

// FindSummary retrieves one annotated item
func (r *itemRepository) FindSummary(ctx context.Context, id, viewerID int64) (*domain.ItemSummary, error) {
	summaries, err := r.summaries(ctx, []string{"i.id = $2"}, []interface{}{viewerID, id})
	if err != nil {
		return nil, err
	}

	if len(summaries) == 0 {
		return nil, ErrItemNotFound
	}

	return summaries[0], nil
}

// summaries runs the listing projection. args[0] must be the viewer id.
func (r *itemRepository) summaries(ctx context.Context, conditions []string, args []interface{}) ([]*domain.ItemSummary, error) {
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       u.name,
		       (SELECT COUNT(*) FROM item_user f WHERE f.item_id = i.id),
		       EXISTS (SELECT 1 FROM item_user f WHERE f.item_id = i.id AND f.user_id = $1),
		       (SELECT COUNT(*) FROM comments c WHERE c.item_id = i.id),
		       (SELECT p.status_id FROM purchases p WHERE p.item_id = i.id ORDER BY p.id DESC LIMIT 1)
		FROM items i
		JOIN users u ON u.id = i.seller_id
		%s
		ORDER BY i.created_at DESC, i.id DESC
	`, itemColumns, whereClause)

	db := executor(ctx, r.db)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	summaries := []*domain.ItemSummary{}
	ids := []int64{}
	for rows.Next() {
		var latestStatus sql.NullInt64
		summary := &domain.ItemSummary{Images: []domain.ItemImage{}}
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Description,
			&summary.ConditionID,
			&summary.Price,
			&summary.Brand,
			&summary.SellerID,
			&summary.CategoryID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.SellerName,
			&summary.FavoriteCount,
			&summary.Favorited,
			&summary.CommentCount,
			&latestStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		summary.PurchaseState = domain.DerivePurchaseState(idPointer(latestStatus))
		summaries = append(summaries, summary)
		ids = append(ids, summary.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	if len(ids) == 0 {
		return summaries, nil
	}

	images, err := imagesByItem(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if list, ok := images[summary.ID]; ok {
			summary.Images = list
		}
	}

	return summaries, nil
}
