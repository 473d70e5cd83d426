package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopdash/ordercore/domain"
	"github.com/shopdash/ordercore/internal/inventory"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryCatalog_ReadsLiveStock(t *testing.T) {
	ctx := context.Background()
	ledger := inventory.NewMemoryStore()
	ledger.SetStock(1, 10)

	c := NewMemoryCatalog(ledger)
	c.PutProduct(domain.Product{ID: 1, Name: "Lamp", Price: 29.99, Status: domain.ProductStatusActive})

	require.NoError(t, ledger.Decrement(ctx, 1, 2))

	p, err := c.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	c.RemoveProduct(1)
	_, err = c.GetProduct(ctx, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemoryCatalog_Deals(t *testing.T) {
	c := NewMemoryCatalog(nil)
	c.PutDeal(domain.Deal{ID: 5, Code: "Spring10", MaxUses: 1})

	d, err := c.GetDeal(context.Background(), "SPRING10")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, int64(5), d.ID)

	d, err = c.GetDealByID(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, d)
}

type flakyCatalog struct {
	err   error
	calls int
}

func (f *flakyCatalog) GetProduct(context.Context, int64) (*domain.Product, error) {
	f.calls++
	return nil, f.err
}

func (f *flakyCatalog) GetDeal(context.Context, string) (*domain.Deal, error) {
	f.calls++
	return nil, f.err
}

func (f *flakyCatalog) GetDealByID(context.Context, int64) (*domain.Deal, error) {
	f.calls++
	return nil, f.err
}

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "catalog-test",
		MaxHalfOpenRequests: 1,
		Interval:            time.Minute,
		OpenTimeout:         time.Minute,
		ConsecutiveFailures: 3,
	}
}

func TestBreakerCatalog_TripsOnFailures(t *testing.T) {
	backend := &flakyCatalog{err: errors.New("connection refused")}
	b := NewBreakerCatalog(backend, testBreakerSettings(), zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		_, err := b.GetProduct(context.Background(), 1)
		assert.ErrorContains(t, err, "connection refused")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.GetProduct(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, backend.calls, "open breaker must not reach the backend")
}

func TestBreakerCatalog_NotFoundDoesNotTrip(t *testing.T) {
	backend := &flakyCatalog{err: ErrProductNotFound}
	b := NewBreakerCatalog(backend, testBreakerSettings(), zaptest.NewLogger(t))

	for i := 0; i < 5; i++ {
		_, err := b.GetProduct(context.Background(), 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerCatalog_PassesNilDeal(t *testing.T) {
	b := NewBreakerCatalog(&flakyCatalog{}, testBreakerSettings(), zaptest.NewLogger(t))

	d, err := b.GetDeal(context.Background(), "NONE")
	require.NoError(t, err)
	assert.Nil(t, d)
}
