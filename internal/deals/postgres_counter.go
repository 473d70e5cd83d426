package deals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopdash/ordercore/internal/postgres"
)

const (
	incrementUsageQuery = `UPDATE deals SET used_count = used_count + 1, updated_at = NOW()
	          WHERE id = $1 AND (max_uses = -1 OR used_count < max_uses)
	          RETURNING used_count`
	releaseUsageQuery = `UPDATE deals SET used_count = used_count - 1, updated_at = NOW()
	          WHERE id = $1 AND used_count > 0`
	selectMaxUsesQuery = `SELECT max_uses FROM deals WHERE id = $1`
)

// PostgresCounter guards the cap inside the UPDATE statement itself.
type PostgresCounter struct {
	db *sql.DB
}

func NewPostgresCounter(db *sql.DB) *PostgresCounter {
	return &PostgresCounter{db: db}
}

func (c *PostgresCounter) IncrementUsage(ctx context.Context, dealID int64) error {
	conn := postgres.Conn(ctx, c.db)

	var used int
	err := conn.QueryRowContext(ctx, incrementUsageQuery, dealID).Scan(&used)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("increment deal usage: %w", err)
	}

	var maxUses int
	err = conn.QueryRowContext(ctx, selectMaxUsesQuery, dealID).Scan(&maxUses)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDealNotFound
	}
	if err != nil {
		return fmt.Errorf("query deal max uses: %w", err)
	}
	return &UsageLimitExceededError{DealID: dealID, MaxUses: maxUses}
}

func (c *PostgresCounter) ReleaseUsage(ctx context.Context, dealID int64) error {
	res, err := postgres.Conn(ctx, c.db).ExecContext(ctx, releaseUsageQuery, dealID)
	if err != nil {
		return fmt.Errorf("release deal usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release deal usage rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoUsageToRelease
	}
	return nil
}
