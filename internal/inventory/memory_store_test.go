package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, stocks map[int64]int) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	for id, qty := range stocks {
		store.SetStock(id, qty)
	}
	return store
}

func TestMemoryStore_Decrement(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		qty       int
		wantErr   error
		wantStock int
	}{
		{"takes units", 10, 2, nil, 8},
		{"takes last units", 2, 2, nil, 0},
		{"refuses more than available", 1, 2, ErrInsufficientStock, 1},
		{"refuses zero quantity", 5, 0, ErrInvalidQuantity, 5},
		{"refuses negative quantity", 5, -1, ErrInvalidQuantity, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupStore(t, map[int64]int{1: tt.stock})

			err := store.Decrement(ctx, 1, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			stock, err := store.Stock(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, stock)
		})
	}
}

func TestMemoryStore_InsufficientStockMessage(t *testing.T) {
	store := setupStore(t, map[int64]int{7: 1})

	err := store.Decrement(context.Background(), 7, 2)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(7), stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, "Insufficient stock. Available: 1", err.Error())
}

func TestMemoryStore_ProductNotFound(t *testing.T) {
	store := setupStore(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Decrement(ctx, 99, 1), ErrProductNotFound)
	assert.ErrorIs(t, store.Increment(ctx, 99, 1), ErrProductNotFound)
	_, err := store.Stock(ctx, 99)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryStore_Increment(t *testing.T) {
	store := setupStore(t, map[int64]int{1: 8})
	ctx := context.Background()

	require.NoError(t, store.Increment(ctx, 1, 2))
	stock, _ := store.Stock(ctx, 1)
	assert.Equal(t, 10, stock)
}

func TestMemoryStore_ConcurrentLastUnit(t *testing.T) {
	store := setupStore(t, map[int64]int{1: 1})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.Decrement(context.Background(), 1, 1)
		}(i)
	}
	wg.Wait()

	successes, refusals := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientStock):
			refusals++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, refusals)

	stock, _ := store.Stock(context.Background(), 1)
	assert.Equal(t, 0, stock)
}

func TestMemoryStore_ConcurrentDecrements(t *testing.T) {
	store := setupStore(t, map[int64]int{1: 100})

	var wg sync.WaitGroup
	successCount := 0
	var mu sync.Mutex

	// 10 callers ask for 20 units each; only 5 fit
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Decrement(context.Background(), 1, 20); err == nil {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 5, successCount)

	stock, _ := store.Stock(context.Background(), 1)
	assert.Equal(t, 0, stock)
}
