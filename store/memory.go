package store

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/xlog"
)

type inMemory struct {
	mu      sync.Mutex
	storage map[string][]Item
	opts    options
}

// NewMemoryStore returns BasketStore that lives for the process lifetime
func NewMemoryStore(opts ...Option) BasketStore {
	return &inMemory{
		storage: make(map[string][]Item),
		opts:    newOptions(opts...),
	}
}

func (m *inMemory) AddToBasket(ctx context.Context, userID string, items []Item) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.storage[userID] = append(m.storage[userID], items...)
	metricskey.StatsBasketItemsAdded.IncrCounter(float64(len(items)), "memory")
	return len(m.storage[userID]), nil
}

func (m *inMemory) Basket(_ context.Context, userID string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.storage[userID]), nil
}

func (m *inMemory) CompletePurchase(ctx context.Context, userID, paymentMethod, deliveryAddress string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.storage[userID]
	if len(items) == 0 {
		return nil, errors.WithStack(ErrEmptyBasket)
	}
	// the basket stays, only emptied
	m.storage[userID] = []Item{}

	order := NewOrder(userID, items, paymentMethod, deliveryAddress, m.opts.unitPrice)
	metricskey.StatsBasketCheckouts.IncrCounter(1, "memory")
	logger.ContextKV(ctx, xlog.INFO,
		"status", "purchase_completed",
		"user_id", userID,
		"order_id", order.OrderID,
		"items", order.ItemCount)
	return order, nil
}
