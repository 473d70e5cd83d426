package orders

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopdash/ordercore/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

var columns = []string{
	"id", "user_id", "items", "shipping_address", "billing_address", "payment_method", "status", "payment_status",
	"original_amount", "discount_amount", "total_amount", "coupon_code", "currency", "created_at", "updated_at",
}

func orderRow(t *testing.T, o *domain.Order) []driver.Value {
	items, err := json.Marshal(o.Items)
	require.NoError(t, err)
	shipping, err := json.Marshal(o.ShippingAddress)
	require.NoError(t, err)
	billing, err := json.Marshal(o.BillingAddress)
	require.NoError(t, err)
	return []driver.Value{
		o.ID.String(), o.UserID, items, shipping, billing, string(o.PaymentMethod), string(o.Status),
		string(o.PaymentStatus), o.OriginalAmount, o.DiscountAmount, o.TotalAmount, o.CouponCode, o.Currency,
		o.CreatedAt, o.UpdatedAt,
	}
}

func TestPostgresRepository_CreateOrder(t *testing.T) {
	repo, mock := newMockRepository(t)
	order := newTestOrder("user-123", 2)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(sqlmock.AnyArg(), "user-123", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"credit_card", "pending", "pending", 59.98, 0.0, 59.98, "", "USD", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateOrder(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetOrderByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	order := newTestOrder("user-123", 2)

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderQuery)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(orderRow(t, order)...))

	got, err := repo.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, order.Items, got.Items)
	assert.Equal(t, order.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	assert.Equal(t, domain.PaymentMethodCreditCard, got.PaymentMethod)
	assert.Equal(t, 59.98, got.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetOrderByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderQuery)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPostgresRepository_GetOrderForUpdate_LocksRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	order := newTestOrder("user-123", 1)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 FOR UPDATE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(orderRow(t, order)...))

	_, err := repo.GetOrderForUpdate(context.Background(), order.ID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListOrdersByUserID(t *testing.T) {
	repo, mock := newMockRepository(t)
	newer := newTestOrder("user-123", 1)
	older := newTestOrder("user-123", 2)
	older.CreatedAt = newer.CreatedAt.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(listOrdersQuery)).
		WithArgs("user-123").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(orderRow(t, newer)...).
			AddRow(orderRow(t, older)...))

	got, err := repo.ListOrdersByUserID(context.Background(), "user-123")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestPostgresRepository_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"applied", 1, nil},
		{"status moved underneath", 0, ErrConcurrentUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			change := StatusChange{
				ID:          uuid.New(),
				FromStatus:  domain.OrderStatusPending,
				FromPayment: domain.PaymentStatusPending,
				ToStatus:    domain.OrderStatusCancelled,
				ToPayment:   domain.PaymentStatusPending,
				At:          time.Now(),
			}

			mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $4")).
				WithArgs(sqlmock.AnyArg(), "pending", "pending", "cancelled", "pending", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.UpdateStatus(context.Background(), change)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
