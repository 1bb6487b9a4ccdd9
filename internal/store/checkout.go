package store

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/veldrane/cartd/internal/remote"
)

// RemoteCart is the slice of the platform cart API the checkout hand-off
// needs. *remote.Client satisfies it.
type RemoteCart interface {
	Clear(ctx context.Context) error
	AddItems(ctx context.Context, items []remote.AddItem) (*remote.Snapshot, error)
}

// CheckoutResult carries what the caller needs to hand the user over to the
// platform's checkout page.
type CheckoutResult struct {
	Remote      *remote.Snapshot
	CheckoutURL string
}

// Checkout pushes the local cart to the remote cart service as one batch.
// The remote cart is best-effort cleared first so the batch is the whole
// working set. On success the local cart is deliberately NOT cleared: the
// remote cart becomes the working set for the checkout flow, and clearing
// before the navigation is confirmed would lose the cart on a failed
// redirect. On failure the local cart is untouched and the caller may
// re-trigger checkout.
func (s *Store) Checkout(ctx context.Context) (*CheckoutResult, error) {
	s.mu.RLock()
	items := s.cart.Clone().Items
	s.mu.RUnlock()

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]remote.AddItem, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item.VariantID, 10, 64)
		if err != nil {
			return nil, &CheckoutSyncError{
				Err: fmt.Errorf("variant %q has no platform id: %w", item.VariantID, err),
			}
		}
		lines = append(lines, remote.AddItem{ID: id, Quantity: item.Quantity})
	}

	// An already-populated remote cart would double the quantities of the
	// batch add, so try to start from empty. Not guaranteed and not fatal.
	if err := s.remote.Clear(ctx); err != nil {
		log.Printf("best-effort remote cart clear failed for key %s: %v", s.key, err)
	}

	snapshot, err := s.remote.AddItems(ctx, lines)
	if err != nil {
		return nil, &CheckoutSyncError{Err: err}
	}

	return &CheckoutResult{
		Remote:      snapshot,
		CheckoutURL: "/checkout",
	}, nil
}
