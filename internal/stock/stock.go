// Package stock owns the no-oversell rule for product stock counters.
package stock

import (
	"context"
	"fmt"

	"github.com/01moynul/taptosell-checkout/internal/apperr"
	"github.com/01moynul/taptosell-checkout/internal/store"
)

// Decrement subtracts qty from the product's stock inside the caller's unit
// of work. The store applies it as a conditional update, so a concurrent order
// that got there first is caught here even if the caller's pre-check passed.
func Decrement(ctx context.Context, tx store.Stock, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.InvalidRequest("quantity must be at least 1")
	}
	ok, err := tx.DecrementStock(ctx, productID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}
	if !ok {
		return apperr.InsufficientStock(productID)
	}
	return nil
}
