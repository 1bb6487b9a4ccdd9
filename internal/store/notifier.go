package store

import "github.com/veldrane/cartd/internal/domain"

// Update is the payload handed to the presentation layer after every
// successful mutation.
type Update struct {
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
}

// Notifier receives change notifications from the store. Implementations
// render drawers, show toasts, or publish events; the store never embeds
// presentation strings itself.
type Notifier interface {
	CartChanged(update Update)
	ItemAdded(title string)
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) CartChanged(update Update) {
	for _, n := range m {
		n.CartChanged(update)
	}
}

func (m MultiNotifier) ItemAdded(title string) {
	for _, n := range m {
		n.ItemAdded(title)
	}
}

type noopNotifier struct{}

func (noopNotifier) CartChanged(Update) {}
func (noopNotifier) ItemAdded(string)   {}
