package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/rl1809/shop-api/internal/core/domain"
)

// MemoryLedger is append-only. Orders are copied in and out.
type MemoryLedger struct {
	mu     sync.RWMutex
	orders []domain.Order
	ids    map[string]struct{}
	byUser map[string][]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		ids:    make(map[string]struct{}),
		byUser: make(map[string][]int),
	}
}

func (l *MemoryLedger) Append(ctx context.Context, order domain.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.ids[order.ID]; exists {
		return fmt.Errorf("append %s: %w", order.ID, domain.ErrDuplicateOrder)
	}

	l.ids[order.ID] = struct{}{}
	l.byUser[order.UserID] = append(l.byUser[order.UserID], len(l.orders))
	l.orders = append(l.orders, order.Clone())
	return nil
}

func (l *MemoryLedger) ListAll(ctx context.Context) ([]domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Order, len(l.orders))
	for i, o := range l.orders {
		out[i] = o.Clone()
	}
	return out, nil
}

func (l *MemoryLedger) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := l.byUser[userID]
	out := make([]domain.Order, len(idx))
	for i, n := range idx {
		out[i] = l.orders[n].Clone()
	}
	return out, nil
}
