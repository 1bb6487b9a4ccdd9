package domain

import "time"

// LineItem is one purchasable variant in the cart. Title, price and display
// metadata are captured at add time and not refreshed from the catalog.
type LineItem struct {
	VariantID string  `json:"variant_id"`
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
	URL       string  `json:"url"`
	Quantity  int     `json:"quantity"`
}

// Cart is the aggregate root. Items are ordered by insertion and unique by
// VariantID. Version is bumped on every persisted write so concurrent
// writers overwriting each other stay observable in logs.
type Cart struct {
	Items     []LineItem `json:"items"`
	Version   uint64     `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Find returns a pointer into Items for in-place quantity updates,
// or nil when the variant is not in the cart.
func (c *Cart) Find(variantID string) *LineItem {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

// EligibleForFreeShipping reports whether the subtotal reaches the
// threshold. A non-positive threshold means shipping is always free.
func (c *Cart) EligibleForFreeShipping(threshold float64) bool {
	if threshold <= 0 {
		return true
	}
	return c.Subtotal() >= threshold
}

// ShippingProgress returns the fraction of the threshold reached, capped at
// 1, for progress-bar rendering.
func (c *Cart) ShippingProgress(threshold float64) float64 {
	if threshold <= 0 {
		return 1
	}
	progress := c.Subtotal() / threshold
	if progress > 1 {
		return 1
	}
	return progress
}

// ShippingFee returns the flat fee charged below the threshold, zero at or
// above it.
func (c *Cart) ShippingFee(threshold, fee float64) float64 {
	if c.EligibleForFreeShipping(threshold) {
		return 0
	}
	return fee
}

// Clone returns a deep copy so snapshots handed to callers cannot alias the
// cart's own item slice.
func (c *Cart) Clone() Cart {
	clone := Cart{
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Items != nil {
		clone.Items = make([]LineItem, len(c.Items))
		copy(clone.Items, c.Items)
	}
	return clone
}
