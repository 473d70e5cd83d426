package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopdash/ordercore/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service is the cart boundary used by checkout.
type Service struct {
	repo  CartRepository
	cache CartCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *zap.Logger
}

// NewService creates a cart service. cache may be nil.
func NewService(repo CartRepository, cache CartCache, log *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// LoadActiveCart reads the user's active cart from the repository. Returns nil when there is none.
func (s *Service) LoadActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.GetActiveCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active cart: %w", err)
	}
	return c, nil
}

// CachedActiveCart is LoadActiveCart through the read cache. Used for previews only.
func (s *Service) CachedActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if s.cache == nil {
		return s.LoadActiveCart(ctx, userID)
	}

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		c, err = s.LoadActiveCart(ctx, userID)
		if err != nil || c == nil {
			return c, err
		}

		go func(c *domain.Cart) {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, userID, c); err != nil {
				s.log.Warn("cart cache set failed", zap.String("user_id", userID), zap.Error(err))
			}
		}(c)

		return c, nil
	})
	if err != nil {
		return nil, err
	}

	c, _ := v.(*domain.Cart)
	return c, nil
}

// ClearCart empties and deactivates the cart, then drops any cached copy.
func (s *Service) ClearCart(ctx context.Context, c *domain.Cart) error {
	if err := s.repo.ClearCart(ctx, c.ID.Hex()); err != nil {
		return fmt.Errorf("clear cart %s: %w", c.ID.Hex(), err)
	}
	s.invalidateCache(c.UserID)
	return nil
}

func (s *Service) invalidateCache(userID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
