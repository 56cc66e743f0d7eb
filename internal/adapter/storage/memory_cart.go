package storage

import (
	"context"
	"math"
	"sync"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type cartEntry struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

// MemoryCarts serializes mutations per user. Carts of different users never
// contend beyond the brief map lookup.
type MemoryCarts struct {
	mu    sync.Mutex
	carts map[string]*cartEntry
}

func NewMemoryCarts() *MemoryCarts {
	return &MemoryCarts{carts: make(map[string]*cartEntry)}
}

func (m *MemoryCarts) entry(userID string) *cartEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.carts[userID]
	if !ok {
		e = &cartEntry{}
		m.carts[userID] = e
	}
	return e
}

func (m *MemoryCarts) Get(ctx context.Context, userID string) ([]domain.CartLine, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneLines(e.lines), nil
}

func (m *MemoryCarts) AddOrIncrement(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := indexOf(e.lines, productID); i >= 0 {
		if quantity > math.MaxInt64-e.lines[i].Quantity {
			return nil, domain.ErrInvalidQuantity
		}
		e.lines[i].Quantity += quantity
	} else {
		e.lines = append(e.lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}
	return domain.CloneLines(e.lines), nil
}

func (m *MemoryCarts) SetQuantity(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	i := indexOf(e.lines, productID)
	if i < 0 {
		return nil, domain.ErrItemNotInCart
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	e.lines[i].Quantity = quantity
	return domain.CloneLines(e.lines), nil
}

func (m *MemoryCarts) RemoveLine(ctx context.Context, userID, productID string) ([]domain.CartLine, error) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	i := indexOf(e.lines, productID)
	if i < 0 {
		return nil, domain.ErrItemNotInCart
	}

	e.lines = append(e.lines[:i], e.lines[i+1:]...)
	return domain.CloneLines(e.lines), nil
}

func (m *MemoryCarts) Clear(ctx context.Context, userID string) error {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lines = nil
	return nil
}

func (m *MemoryCarts) Checkout(ctx context.Context, userID string, fn func(lines []domain.CartLine) error) error {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(domain.CloneLines(e.lines)); err != nil {
		return err
	}

	e.lines = nil
	return nil
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
