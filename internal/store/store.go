// Package store holds the cart's single source of truth: the line item
// list, its derived totals, and the checkout hand-off to the remote cart
// service. Persistence failures are absorbed here and logged; only checkout
// has externally visible failure modes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/veldrane/cartd/internal/domain"
	"github.com/veldrane/cartd/internal/persistence"
)

const persistTimeout = time.Second

type Store struct {
	mu       sync.RWMutex
	cart     domain.Cart
	backend  persistence.Backend
	key      string
	notifier Notifier
	remote   RemoteCart
}

func NewStore(backend persistence.Backend, key string, remote RemoteCart, notifier Notifier) *Store {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Store{
		backend:  backend,
		key:      key,
		notifier: notifier,
		remote:   remote,
	}
}

// Load hydrates the cart from the persistence backend. Absent or corrupt
// stored data degrades to an empty cart; it never fails visibly.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.backend.Read(ctx, s.key)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			log.Printf("cart read error for key %s: %v", s.key, err)
		}
		s.cart = domain.Cart{}
		return
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		log.Printf("corrupt cart payload for key %s, resetting: %v", s.key, err)
		s.cart = domain.Cart{}
		return
	}
	s.cart = cart
}

// AddItem appends a new line with quantity 1, or increments the quantity of
// an existing line with the same variant ID.
func (s *Store) AddItem(variantID, productID, title string, unitPrice float64, image, url string) Update {
	s.mu.Lock()
	if existing := s.cart.Find(variantID); existing != nil {
		existing.Quantity++
	} else {
		s.cart.Items = append(s.cart.Items, domain.LineItem{
			VariantID: variantID,
			ProductID: productID,
			Title:     title,
			UnitPrice: unitPrice,
			Image:     image,
			URL:       url,
			Quantity:  1,
		})
	}
	s.persistLocked()
	update := s.updateLocked()
	s.mu.Unlock()

	s.notifier.CartChanged(update)
	s.notifier.ItemAdded(title)
	return update
}

// RemoveItem deletes the matching line. Removing an absent variant is a
// no-op, not an error.
func (s *Store) RemoveItem(variantID string) Update {
	s.mu.Lock()
	items := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.VariantID != variantID {
			items = append(items, item)
		}
	}
	s.cart.Items = items
	s.persistLocked()
	update := s.updateLocked()
	s.mu.Unlock()

	s.notifier.CartChanged(update)
	return update
}

// UpdateQuantity sets the quantity of the matching line. A quantity of zero
// or less removes the line. An absent variant is a no-op.
func (s *Store) UpdateQuantity(variantID string, quantity int) Update {
	if quantity <= 0 {
		return s.RemoveItem(variantID)
	}

	s.mu.Lock()
	if item := s.cart.Find(variantID); item != nil {
		item.Quantity = quantity
		s.persistLocked()
	}
	update := s.updateLocked()
	s.mu.Unlock()

	s.notifier.CartChanged(update)
	return update
}

// Clear empties the cart.
func (s *Store) Clear() Update {
	s.mu.Lock()
	s.cart.Items = nil
	s.persistLocked()
	update := s.updateLocked()
	s.mu.Unlock()

	s.notifier.CartChanged(update)
	return update
}

// Snapshot returns the current items and derived totals for initial render.
func (s *Store) Snapshot() Update {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateLocked()
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ItemCount()
}

func (s *Store) Subtotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Subtotal()
}

func (s *Store) EligibleForFreeShipping(threshold float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.EligibleForFreeShipping(threshold)
}

func (s *Store) ShippingProgress(threshold float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ShippingProgress(threshold)
}

func (s *Store) ShippingFee(threshold, fee float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ShippingFee(threshold, fee)
}

// persistLocked writes the cart through the backend. Persistence errors are
// absorbed and logged; the in-memory cart stays authoritative for the
// session either way. Callers must hold the write lock.
func (s *Store) persistLocked() {
	s.cart.Version++
	s.cart.UpdatedAt = time.Now()

	payload, err := json.Marshal(&s.cart)
	if err != nil {
		log.Printf("marshal cart failed for key %s: %v", s.key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.backend.Write(ctx, s.key, string(payload)); err != nil {
		log.Printf("persist cart failed for key %s: %v", s.key, err)
	}
}

func (s *Store) updateLocked() Update {
	clone := s.cart.Clone()
	return Update{
		Items:     clone.Items,
		ItemCount: clone.ItemCount(),
		Subtotal:  clone.Subtotal(),
	}
}
