package store

import "errors"

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// CheckoutSyncError wraps a failure while pushing the local cart to the
// remote cart service. The local cart is left unchanged; the caller decides
// how to surface it and whether to re-trigger checkout.
type CheckoutSyncError struct {
	Err error
}

func (e *CheckoutSyncError) Error() string {
	return "checkout sync failed: " + e.Err.Error()
}

func (e *CheckoutSyncError) Unwrap() error {
	return e.Err
}
