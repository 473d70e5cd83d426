package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopdash/ordercore/internal/postgres"
)

const (
	decrementStockQuery = `UPDATE products SET stock = stock - $2, updated_at = NOW()
	          WHERE id = $1 AND stock >= $2
	          RETURNING stock`
	incrementStockQuery = `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`
	selectStockQuery    = `SELECT stock FROM products WHERE id = $1`
)

// PostgresStore keeps stock in the products table. Every decrement is a guarded
// UPDATE, so concurrent callers never drive stock below zero.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Decrement(ctx context.Context, productID int64, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	var remaining int
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, decrementStockQuery, productID, qty).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		// guard rejected the row, or the row does not exist
		available, stockErr := s.Stock(ctx, productID)
		if stockErr != nil {
			return stockErr
		}
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func (s *PostgresStore) Increment(ctx context.Context, productID int64, qty int) error {
	if err := validateQuantity(qty); err != nil {
		return err
	}

	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, incrementStockQuery, productID, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock rows affected: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) Stock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, selectStockQuery, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}
