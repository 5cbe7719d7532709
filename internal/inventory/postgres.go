package inventory

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
		CREATE TABLE IF NOT EXISTS products (
			product_id TEXT PRIMARY KEY,
			stock INT NOT NULL CHECK (stock >= 0)
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure products schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	query := `SELECT product_id, stock FROM products WHERE product_id = $1`
	err := r.db.QueryRow(ctx, query, productID).Scan(&p.ProductID, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT product_id, stock FROM products ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ProductID, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) Save(ctx context.Context, p *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (product_id, stock) VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET stock = EXCLUDED.stock`,
		p.ProductID, p.Stock)
	return err
}

// DeductStock locks the product row for the duration of the
// read-decide-write, so two concurrent adjustments against one product
// serialize at the database.
func (r *PostgresRepository) DeductStock(ctx context.Context, productID string, quantity int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE product_id = $1 FOR UPDATE`, productID).Scan(&currentStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get stock for product %s: %w", productID, err)
	}

	if currentStock < quantity {
		return fmt.Errorf("product %s: available %d, requested %d: %w", productID, currentStock, quantity, ErrInsufficientStock)
	}

	_, err = tx.Exec(ctx, `UPDATE products SET stock = $1 WHERE product_id = $2`, currentStock-quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", productID, err)
	}

	return tx.Commit(ctx)
}
