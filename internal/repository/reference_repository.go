package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleamarket/internal/domain"
)

var (
	ErrConditionNotFound = errors.New("condition not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrStatusNotFound    = errors.New("status not found")
)

// ReferenceRepository reads the seeded lookup tables
type ReferenceRepository interface {
	ListConditions(ctx context.Context) ([]*domain.Condition, error)
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	ListStatuses(ctx context.Context) ([]*domain.Status, error)
	ListRoles(ctx context.Context) ([]*domain.Role, error)
	FindCondition(ctx context.Context, id int64) (*domain.Condition, error)
	FindPayment(ctx context.Context, id int64) (*domain.Payment, error)
	FindStatus(ctx context.Context, id int64) (*domain.Status, error)
}

type referenceRepository struct {
	db *sql.DB
}

// NewReferenceRepository creates a new instance of ReferenceRepository
func NewReferenceRepository(db *sql.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

// namedRows runs a two-column (id, name) query and hands each row to add
func (r *referenceRepository) namedRows(ctx context.Context, table string, add func(id int64, name string)) error {
	rows, err := executor(ctx, r.db).QueryContext(ctx, `SELECT id, name FROM `+table+` ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		add(id, name)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s: %w", table, err)
	}
	return nil
}

func (r *referenceRepository) ListConditions(ctx context.Context) ([]*domain.Condition, error) {
	conditions := []*domain.Condition{}
	err := r.namedRows(ctx, "conditions", func(id int64, name string) {
		conditions = append(conditions, &domain.Condition{ID: id, Name: name})
	})
	return conditions, err
}

func (r *referenceRepository) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	payments := []*domain.Payment{}
	err := r.namedRows(ctx, "payments", func(id int64, name string) {
		payments = append(payments, &domain.Payment{ID: id, Name: name})
	})
	return payments, err
}

func (r *referenceRepository) ListStatuses(ctx context.Context) ([]*domain.Status, error) {
	statuses := []*domain.Status{}
	err := r.namedRows(ctx, "statuses", func(id int64, name string) {
		statuses = append(statuses, &domain.Status{ID: id, Name: name})
	})
	return statuses, err
}

// ListRoles retrieves all roles with their descriptions
func (r *referenceRepository) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, `SELECT id, name, description FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []*domain.Role{}
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

func (r *referenceRepository) findName(ctx context.Context, table string, id int64, notFound error) (string, error) {
	var name string
	err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT name FROM `+table+` WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound
		}
		return "", fmt.Errorf("failed to find %s: %w", table, err)
	}
	return name, nil
}

func (r *referenceRepository) FindCondition(ctx context.Context, id int64) (*domain.Condition, error) {
	name, err := r.findName(ctx, "conditions", id, ErrConditionNotFound)
	if err != nil {
		return nil, err
	}
	return &domain.Condition{ID: id, Name: name}, nil
}

func (r *referenceRepository) FindPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	name, err := r.findName(ctx, "payments", id, ErrPaymentNotFound)
	if err != nil {
		return nil, err
	}
	return &domain.Payment{ID: id, Name: name}, nil
}

func (r *referenceRepository) FindStatus(ctx context.Context, id int64) (*domain.Status, error) {
	name, err := r.findName(ctx, "statuses", id, ErrStatusNotFound)
	if err != nil {
		return nil, err
	}
	return &domain.Status{ID: id, Name: name}, nil
}
