package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SameIDSharesStore(t *testing.T) {
	backend := newMockBackend()
	registry := NewRegistry(backend, nil, nil, "cart:")
	ctx := context.Background()

	first := registry.Get(ctx, "visitor-1")
	second := registry.Get(ctx, "visitor-1")

	assert.Same(t, first, second, "mobile and desktop surfaces must share one store")

	other := registry.Get(ctx, "visitor-2")
	assert.NotSame(t, first, other)
}

func TestRegistry_HydratesOnFirstUse(t *testing.T) {
	backend := newMockBackend()
	seed := NewStore(backend, "cart:visitor-1", nil, nil)
	seed.Load(context.Background())
	seed.AddItem("111", "p1", "Widget", 10.00, "", "")

	registry := NewRegistry(backend, nil, nil, "cart:")
	sut := registry.Get(context.Background(), "visitor-1")

	require.Equal(t, 1, sut.ItemCount())
}

func TestRegistry_NotifierFactoryPerCart(t *testing.T) {
	backend := newMockBackend()
	notifiers := make(map[string]*mockNotifier)
	registry := NewRegistry(backend, nil, func(cartID string) Notifier {
		n := &mockNotifier{}
		notifiers[cartID] = n
		return n
	}, "")

	registry.Get(context.Background(), "visitor-1").AddItem("111", "p1", "Widget", 10.00, "", "")
	registry.Get(context.Background(), "visitor-2").AddItem("222", "p2", "Gadget", 5.50, "", "")

	require.Len(t, notifiers, 2)
	assert.Equal(t, []string{"Widget"}, notifiers["visitor-1"].titles)
	assert.Equal(t, []string{"Gadget"}, notifiers["visitor-2"].titles)
}
