package deals

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopdash/ordercore/domain"
)

const (
	resultMissing = -2
	resultFull    = -1
)

// KEYS[1] usage hash. Returns the new used_count, -1 when full, -2 when not seeded.
var incrementScript = redis.NewScript(`
local max = redis.call('HGET', KEYS[1], 'max_uses')
if not max then
	return -2
end
max = tonumber(max)
local used = tonumber(redis.call('HGET', KEYS[1], 'used_count') or '0')
if max ~= -1 and used >= max then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'used_count', 1)
`)

// KEYS[1] usage hash. Returns the new used_count, -1 when nothing to release, -2 when not seeded.
var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -2
end
local used = tonumber(redis.call('HGET', KEYS[1], 'used_count') or '0')
if used <= 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'used_count', -1)
`)

// DealLoader returns the deal with the given id, or nil when it does not exist.
type DealLoader interface {
	GetDealByID(ctx context.Context, id int64) (*domain.Deal, error)
}

// RedisCounter keeps usage in a Redis hash per deal. The cap check and the
// increment run in one Lua script, so concurrent redemptions cannot overshoot.
type RedisCounter struct {
	client *redis.Client
	loader DealLoader
}

// NewRedisCounter creates a counter. loader may be nil, in which case deals must be seeded with Seed.
func NewRedisCounter(client *redis.Client, loader DealLoader) *RedisCounter {
	return &RedisCounter{client: client, loader: loader}
}

// Seed initialises a deal's counter without overwriting live values.
func (c *RedisCounter) Seed(ctx context.Context, deal *domain.Deal) error {
	key := usageKey(deal.ID)
	pipe := c.client.TxPipeline()
	pipe.HSetNX(ctx, key, "max_uses", deal.MaxUses)
	pipe.HSetNX(ctx, key, "used_count", deal.UsedCount)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed deal usage: %w", err)
	}
	return nil
}

func (c *RedisCounter) IncrementUsage(ctx context.Context, dealID int64) error {
	res, err := c.run(ctx, incrementScript, dealID)
	if err != nil {
		return err
	}
	if res == resultMissing {
		if err := c.seedFromLoader(ctx, dealID); err != nil {
			return err
		}
		if res, err = c.run(ctx, incrementScript, dealID); err != nil {
			return err
		}
	}

	switch res {
	case resultMissing:
		return ErrDealNotFound
	case resultFull:
		maxUses, err := c.client.HGet(ctx, usageKey(dealID), "max_uses").Int()
		if err != nil {
			return fmt.Errorf("read deal max uses: %w", err)
		}
		return &UsageLimitExceededError{DealID: dealID, MaxUses: maxUses}
	}
	return nil
}

func (c *RedisCounter) ReleaseUsage(ctx context.Context, dealID int64) error {
	res, err := c.run(ctx, releaseScript, dealID)
	if err != nil {
		return err
	}
	switch res {
	case resultMissing:
		return ErrDealNotFound
	case resultFull:
		return ErrNoUsageToRelease
	}
	return nil
}

func (c *RedisCounter) Usage(ctx context.Context, dealID int64) (int, error) {
	used, err := c.client.HGet(ctx, usageKey(dealID), "used_count").Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrDealNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read deal usage: %w", err)
	}
	return used, nil
}

func (c *RedisCounter) run(ctx context.Context, script *redis.Script, dealID int64) (int64, error) {
	res, err := script.Run(ctx, c.client, []string{usageKey(dealID)}).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis usage script: %w", err)
	}
	return res, nil
}

func (c *RedisCounter) seedFromLoader(ctx context.Context, dealID int64) error {
	if c.loader == nil {
		return ErrDealNotFound
	}
	deal, err := c.loader.GetDealByID(ctx, dealID)
	if err != nil {
		return fmt.Errorf("load deal %d: %w", dealID, err)
	}
	if deal == nil {
		return ErrDealNotFound
	}
	return c.Seed(ctx, deal)
}

func usageKey(dealID int64) string {
	return fmt.Sprintf("deal:%d:usage", dealID)
}
