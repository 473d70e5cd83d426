package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Line is a product quantity pair moved through the ledger as part of one order.
type Line struct {
	ProductID int64
	Quantity  int
}

// DecrementLines takes stock for every line or for none. When a line fails,
// lines already taken in this call are returned before the error is reported.
func DecrementLines(ctx context.Context, l Ledger, lines []Line) error {
	for i, line := range lines {
		if err := l.Decrement(ctx, line.ProductID, line.Quantity); err != nil {
			err = fmt.Errorf("line %d (product %d): %w", i+1, line.ProductID, err)
			if undoErr := undo(ctx, lines[:i], l.Increment); undoErr != nil {
				return errors.Join(err, fmt.Errorf("restore stock: %w", undoErr))
			}
			return err
		}
	}
	return nil
}

// IncrementLines returns stock for every line or for none.
func IncrementLines(ctx context.Context, l Ledger, lines []Line) error {
	for i, line := range lines {
		if err := l.Increment(ctx, line.ProductID, line.Quantity); err != nil {
			err = fmt.Errorf("line %d (product %d): %w", i+1, line.ProductID, err)
			if undoErr := undo(ctx, lines[:i], l.Decrement); undoErr != nil {
				return errors.Join(err, fmt.Errorf("revert restock: %w", undoErr))
			}
			return err
		}
	}
	return nil
}

func undo(ctx context.Context, done []Line, op func(context.Context, int64, int) error) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		if err := op(ctx, done[i].ProductID, done[i].Quantity); err != nil {
			errs = append(errs, fmt.Errorf("product %d: %w", done[i].ProductID, err))
		}
	}
	return errors.Join(errs...)
}
