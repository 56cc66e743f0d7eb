package domain

import (
	"math"
	"time"
)

// OrderItem is the priced snapshot of a cart line at placement time.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

func (i OrderItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// OrderTotal sums price x quantity over items. ok is false when a subtotal
// or the running total does not fit in an int64.
func OrderTotal(items []OrderItem) (total int64, ok bool) {
	for _, item := range items {
		if item.Price < 0 || item.Quantity < 0 {
			return 0, false
		}
		if item.Price != 0 && item.Quantity > math.MaxInt64/item.Price {
			return 0, false
		}
		sub := item.Subtotal()
		if sub > math.MaxInt64-total {
			return 0, false
		}
		total += sub
	}
	return total, true
}

// Order is immutable once appended to the ledger.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewOrder(id, userID string, items []OrderItem, createdAt time.Time) Order {
	snapshot := make([]OrderItem, len(items))
	copy(snapshot, items)

	// callers reject overflowing carts before building the order
	total, _ := OrderTotal(snapshot)

	return Order{
		ID:        id,
		UserID:    userID,
		Items:     snapshot,
		Total:     total,
		CreatedAt: createdAt,
	}
}

// Clone returns a deep copy safe to hand out of a store.
func (o Order) Clone() Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
