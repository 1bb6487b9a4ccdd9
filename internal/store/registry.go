package store

import (
	"context"
	"sync"

	"github.com/veldrane/cartd/internal/persistence"
)

// Registry hands out one Store per cart ID so every device class of the
// same visitor shares a single canonical cart key.
type Registry struct {
	mu        sync.Mutex
	backend   persistence.Backend
	remote    RemoteCart
	notify    func(cartID string) Notifier
	keyPrefix string
	stores    map[string]*Store
}

// NewRegistry creates a registry. notify builds the notifier for a newly
// seen cart ID and may be nil.
func NewRegistry(backend persistence.Backend, remote RemoteCart, notify func(cartID string) Notifier, keyPrefix string) *Registry {
	if keyPrefix == "" {
		keyPrefix = "cart:"
	}
	return &Registry{
		backend:   backend,
		remote:    remote,
		notify:    notify,
		keyPrefix: keyPrefix,
		stores:    make(map[string]*Store),
	}
}

// Get returns the store for the given cart ID, creating and hydrating it on
// first use.
func (r *Registry) Get(ctx context.Context, cartID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.stores[cartID]; exists {
		return s
	}

	var notifier Notifier
	if r.notify != nil {
		notifier = r.notify(cartID)
	}

	s := NewStore(r.backend, r.keyPrefix+cartID, r.remote, notifier)
	s.Load(ctx)
	r.stores[cartID] = s
	return s
}
