package storage

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type productEntry struct {
	mu      sync.Mutex
	product domain.Product
}

// MemoryCatalog keeps products in insertion order. The map lock guards
// membership; each entry lock guards that product's fields. Multi-product
// reservations take entry locks in sorted id order.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]*productEntry
	order   []string
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]*productEntry)}
}

func (c *MemoryCatalog) Get(ctx context.Context, productID string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.product, nil
}

func (c *MemoryCatalog) List(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	c.mu.RLock()
	matched := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		entry := c.entries[id]
		entry.mu.Lock()
		p := entry.product
		entry.mu.Unlock()

		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	c.mu.RUnlock()

	start, end := filter.Window(len(matched))
	data := make([]domain.Product, end-start)
	copy(data, matched[start:end])

	return domain.ProductPage{
		Total: len(matched),
		Page:  filter.Page,
		Limit: filter.Limit,
		Data:  data,
	}, nil
}

func (c *MemoryCatalog) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[product.ID]; exists {
		return domain.Product{}, &domain.InputError{Reason: "product id already exists"}
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	c.entries[product.ID] = &productEntry{product: product}
	c.order = append(c.order, product.ID)
	return product, nil
}

func (c *MemoryCatalog) Update(ctx context.Context, productID string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.product = patch.Apply(entry.product)
	entry.product.UpdatedAt = time.Now()
	return entry.product, nil
}

func (c *MemoryCatalog) Delete(ctx context.Context, productID string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	delete(c.entries, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return entry.product, nil
}

func (c *MemoryCatalog) TryReserve(ctx context.Context, productID string, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.reserve(quantity)
}

// reserve must be called with entry.mu held.
func (e *productEntry) reserve(quantity int64) (int64, error) {
	if e.product.Stock < quantity {
		return e.product.Stock, &domain.InsufficientStockError{
			ProductID:   e.product.ID,
			ProductName: e.product.Name,
			Requested:   quantity,
			Available:   e.product.Stock,
		}
	}
	e.product.Stock -= quantity
	e.product.UpdatedAt = time.Now()
	return e.product.Stock, nil
}

func (c *MemoryCatalog) ReserveAll(ctx context.Context, lines []domain.CartLine) ([]domain.OrderItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Resolve in cart order so the first missing line is the one reported.
	needed := make(map[string]int64, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, ok := c.entries[line.ProductID]; !ok {
			return nil, &domain.ProductGoneError{ProductID: line.ProductID}
		}
		if line.Quantity > math.MaxInt64-needed[line.ProductID] {
			return nil, domain.ErrInvalidQuantity
		}
		needed[line.ProductID] += line.Quantity
	}

	ids := make([]string, 0, len(needed))
	for id := range needed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entry := c.entries[id]
		entry.mu.Lock()
		defer entry.mu.Unlock()
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		p := c.entries[line.ProductID].product
		if needed[line.ProductID] > p.Stock {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   needed[line.ProductID],
				Available:   p.Stock,
			}
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}

	if _, ok := domain.OrderTotal(items); !ok {
		return nil, domain.ErrTotalTooLarge
	}

	now := time.Now()
	for _, item := range items {
		entry := c.entries[item.ProductID]
		entry.product.Stock -= item.Quantity
		entry.product.UpdatedAt = now
	}

	return items, nil
}

func (c *MemoryCatalog) Release(ctx context.Context, items []domain.OrderItem) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range items {
		entry, ok := c.entries[item.ProductID]
		if !ok {
			continue
		}
		entry.mu.Lock()
		entry.product.Stock += item.Quantity
		entry.product.UpdatedAt = time.Now()
		entry.mu.Unlock()
	}
	return nil
}
