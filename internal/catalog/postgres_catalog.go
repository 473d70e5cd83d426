package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/postgres"
)

const (
	selectProductQuery = `SELECT id, name, price, discount_price, stock, status
	          FROM products WHERE id = $1`
	selectDealColumns = `SELECT id, code, discount_type, discount_value, start_date, end_date, max_uses, used_count
	          FROM deals`
	selectDealByCodeQuery = selectDealColumns + ` WHERE UPPER(code) = UPPER($1)`
	selectDealByIDQuery   = selectDealColumns + ` WHERE id = $1`
)

type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	var discountPrice sql.NullFloat64
	err := postgres.Conn(ctx, c.db).QueryRowContext(ctx, selectProductQuery, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&discountPrice,
		&p.Stock,
		&p.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	if discountPrice.Valid {
		p.DiscountPrice = &discountPrice.Float64
	}
	return &p, nil
}

func (c *PostgresCatalog) GetDeal(ctx context.Context, code string) (*domain.Deal, error) {
	return c.queryDeal(ctx, selectDealByCodeQuery, code)
}

func (c *PostgresCatalog) GetDealByID(ctx context.Context, id int64) (*domain.Deal, error) {
	return c.queryDeal(ctx, selectDealByIDQuery, id)
}

func (c *PostgresCatalog) queryDeal(ctx context.Context, query string, arg any) (*domain.Deal, error) {
	var d domain.Deal
	err := postgres.Conn(ctx, c.db).QueryRowContext(ctx, query, arg).Scan(
		&d.ID,
		&d.Code,
		&d.DiscountType,
		&d.DiscountValue,
		&d.StartDate,
		&d.EndDate,
		&d.MaxUses,
		&d.UsedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query deal: %w", err)
	}
	return &d, nil
}
