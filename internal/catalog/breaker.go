package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name                string
	MaxHalfOpenRequests uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "catalog",
		MaxHalfOpenRequests: 3,
		Interval:            time.Minute,
		OpenTimeout:         10 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerCatalog stops calling a failing catalog backend until it recovers.
// Missing products are a normal answer and do not trip the breaker.
type BreakerCatalog struct {
	next Catalog
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerCatalog(next Catalog, s BreakerSettings, log *zap.Logger) *BreakerCatalog {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxHalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	})
	return &BreakerCatalog{next: next, cb: cb}
}

func (b *BreakerCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return execute(b.cb, func() (*domain.Product, error) { return b.next.GetProduct(ctx, id) })
}

func (b *BreakerCatalog) GetDeal(ctx context.Context, code string) (*domain.Deal, error) {
	return execute(b.cb, func() (*domain.Deal, error) { return b.next.GetDeal(ctx, code) })
}

func (b *BreakerCatalog) GetDealByID(ctx context.Context, id int64) (*domain.Deal, error) {
	return execute(b.cb, func() (*domain.Deal, error) { return b.next.GetDealByID(ctx, id) })
}

func (b *BreakerCatalog) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	out, _ := v.(T)
	return out, err
}
