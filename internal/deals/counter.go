package deals

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDealNotFound       = errors.New("deal not found")
	ErrUsageLimitExceeded = errors.New("deal usage limit exceeded")
	ErrNoUsageToRelease   = errors.New("deal has no recorded usage to release")
)

type UsageLimitExceededError struct {
	DealID  int64
	MaxUses int
}

func (e *UsageLimitExceededError) Error() string {
	return fmt.Sprintf("This deal has reached its usage limit of %d", e.MaxUses)
}

func (e *UsageLimitExceededError) Is(target error) bool {
	return target == ErrUsageLimitExceeded
}

// Counter tracks redemptions of a deal against its cap.
type Counter interface {
	// IncrementUsage records one redemption if the deal is unlimited or below its cap.
	// Returns *UsageLimitExceededError otherwise.
	IncrementUsage(ctx context.Context, dealID int64) error

	// ReleaseUsage takes back a redemption recorded earlier by the same checkout
	// attempt when that attempt fails before the order is persisted.
	ReleaseUsage(ctx context.Context, dealID int64) error
}
