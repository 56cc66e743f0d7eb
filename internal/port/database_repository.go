package port

import (
	"context"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type CatalogRepository interface {
	Get(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error)
	Create(ctx context.Context, product domain.Product) (domain.Product, error)

	// Update applies an admin patch under the same per-product lock used by reservation
	Update(ctx context.Context, productID string, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, productID string) (domain.Product, error)

	// TryReserve atomically checks stock >= quantity and decrements, returns the new stock
	TryReserve(ctx context.Context, productID string, quantity int64) (int64, error)

	// ReserveAll validates every line before decrementing any of them; all or nothing
	ReserveAll(ctx context.Context, lines []domain.CartLine) ([]domain.OrderItem, error)

	// Release restores stock taken by ReserveAll (rollback on a failed commit)
	Release(ctx context.Context, items []domain.OrderItem) error
}

type CartRepository interface {
	Get(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddOrIncrement(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error)
	RemoveLine(ctx context.Context, userID, productID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID string) error

	// Checkout runs fn with the user's cart locked; the cart is cleared only when fn returns nil
	Checkout(ctx context.Context, userID string, fn func(lines []domain.CartLine) error) error
}

type OrderLedger interface {
	Append(ctx context.Context, order domain.Order) error
	ListAll(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type UserRepository interface {
	// Create fails with domain.ErrEmailTaken if the email is already registered
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID string) (domain.User, error)
}

// OrderArchive is an outbound copy of committed orders. It is not read back.
type OrderArchive interface {
	SaveOrder(ctx context.Context, order domain.Order) error
}
