package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/postgres"
)

const orderColumns = `id, user_id, items, shipping_address, billing_address, payment_method, status, payment_status,
	          original_amount, discount_amount, total_amount, coupon_code, currency, created_at, updated_at`

const (
	insertOrderQuery = `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	selectOrderQuery          = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	selectOrderForUpdateQuery = selectOrderQuery + ` FOR UPDATE`
	listOrdersQuery           = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	updateStatusQuery         = `UPDATE orders SET status = $4, payment_status = $5, updated_at = $6
	          WHERE id = $1 AND status = $2 AND payment_status = $3`
)

// PostgresRepository stores orders in Postgres. Every method joins the transaction carried by ctx.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	billingJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal billing address: %w", err)
	}

	_, err = postgres.Conn(ctx, r.db).ExecContext(ctx, insertOrderQuery,
		order.ID,
		order.UserID,
		itemsJSON,
		shippingJSON,
		billingJSON,
		order.PaymentMethod,
		order.Status,
		order.PaymentStatus,
		order.OriginalAmount,
		order.DiscountAmount,
		order.TotalAmount,
		order.CouponCode,
		order.Currency,
		order.CreatedAt,
		order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, selectOrderQuery, id)
}

func (r *PostgresRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.getOrder(ctx, selectOrderForUpdateQuery, id)
}

func (r *PostgresRepository) getOrder(ctx context.Context, query string, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(postgres.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := postgres.Conn(ctx, r.db).QueryContext(ctx, listOrdersQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, c StatusChange) error {
	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx, updateStatusQuery,
		c.ID, c.FromStatus, c.FromPayment, c.ToStatus, c.ToPayment, c.At)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON, shippingJSON, billingJSON []byte
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&itemsJSON,
		&shippingJSON,
		&billingJSON,
		&order.PaymentMethod,
		&order.Status,
		&order.PaymentStatus,
		&order.OriginalAmount,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.CouponCode,
		&order.Currency,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(billingJSON, &order.BillingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal billing address: %w", err)
	}
	return &order, nil
}
