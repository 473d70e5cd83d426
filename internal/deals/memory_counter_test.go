package deals

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopdash/ordercore/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounter_IncrementUsage(t *testing.T) {
	tests := []struct {
		name     string
		maxUses  int
		used     int
		wantErr  error
		wantUsed int
	}{
		{"below cap", 3, 1, nil, 2},
		{"reaches cap", 1, 0, nil, 1},
		{"at cap", 1, 1, ErrUsageLimitExceeded, 1},
		{"unlimited", domain.UnlimitedUses, 500, nil, 501},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := NewMemoryCounter()
			c.SetDeal(1, tt.maxUses, tt.used)

			err := c.IncrementUsage(ctx, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			used, _ := c.Usage(ctx, 1)
			assert.Equal(t, tt.wantUsed, used)
		})
	}
}

func TestMemoryCounter_LimitErrorCarriesCap(t *testing.T) {
	c := NewMemoryCounter()
	c.SetDeal(9, 2, 2)

	err := c.IncrementUsage(context.Background(), 9)

	var limitErr *UsageLimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, int64(9), limitErr.DealID)
	assert.Equal(t, 2, limitErr.MaxUses)
}

func TestMemoryCounter_NotFound(t *testing.T) {
	c := NewMemoryCounter()
	assert.ErrorIs(t, c.IncrementUsage(context.Background(), 5), ErrDealNotFound)
	assert.ErrorIs(t, c.ReleaseUsage(context.Background(), 5), ErrDealNotFound)
}

func TestMemoryCounter_Release(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()
	c.SetDeal(1, 1, 0)

	require.NoError(t, c.IncrementUsage(ctx, 1))
	require.NoError(t, c.ReleaseUsage(ctx, 1))
	assert.ErrorIs(t, c.ReleaseUsage(ctx, 1), ErrNoUsageToRelease)

	used, _ := c.Usage(ctx, 1)
	assert.Equal(t, 0, used)
}

func TestMemoryCounter_ConcurrentLastSlot(t *testing.T) {
	c := NewMemoryCounter()
	c.SetDeal(1, 1, 0)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.IncrementUsage(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	successes, limited := 0, 0
	for _, err := range results {
		if err == nil {
			successes++
		} else if errors.Is(err, ErrUsageLimitExceeded) {
			limited++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, limited)

	used, _ := c.Usage(context.Background(), 1)
	assert.Equal(t, 1, used)
}
