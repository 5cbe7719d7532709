package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id TEXT NOT NULL,
			quantity INT NOT NULL CHECK (quantity >= 1),
			status TEXT NOT NULL DEFAULT 'created',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure orders schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, productID string, quantity int) (*Order, error) {
	o := Order{ProductID: productID, Quantity: quantity, Status: StatusCreated}
	query := `INSERT INTO orders (product_id, quantity) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, productID, quantity).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	query := `SELECT id, product_id, quantity, status, created_at FROM orders WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&o.ID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT id, product_id, quantity, status, created_at FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus moves an order out of 'created'. The WHERE clause is the
// single-transition guard: a settled order only matches when the new
// status equals the one already stored.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 AND (status = 'created' OR status = $2)`,
		id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadySettled
	}
	return nil
}
