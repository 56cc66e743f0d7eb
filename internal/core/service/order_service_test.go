package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/shop-api/internal/adapter/storage"
	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/metrics"
	"github.com/rl1809/shop-api/internal/port"
)

type fixture struct {
	catalog *storage.MemoryCatalog
	carts   *storage.MemoryCarts
	ledger  port.OrderLedger
	svc     *OrderService
}

func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	f := &fixture{
		catalog: storage.NewMemoryCatalog(),
		carts:   storage.NewMemoryCarts(),
		ledger:  storage.NewMemoryLedger(),
	}
	for _, p := range products {
		_, err := f.catalog.Create(context.Background(), p)
		require.NoError(t, err)
	}
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 0)
	return f
}

func (f *fixture) add(t *testing.T, userID, productID string, qty int64) {
	t.Helper()
	_, err := f.carts.AddOrIncrement(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) cart(t *testing.T, userID string) []domain.CartLine {
	t.Helper()
	lines, err := f.carts.Get(context.Background(), userID)
	require.NoError(t, err)
	return lines
}

var (
	shoes  = domain.Product{ID: "shoes", Name: "Running Shoes", Category: "Footwear", Price: 3500, Stock: 50}
	jacket = domain.Product{ID: "jacket", Name: "Denim Jacket", Category: "Clothing", Price: 2200, Stock: 30}
)

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t, shoes)
	f.add(t, "user-1", "shoes", 2)

	order, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, int64(7000), order.Total)
	assert.Equal(t, []domain.OrderItem{{ProductID: "shoes", Name: "Running Shoes", Price: 3500, Quantity: 2}}, order.Items)
	assert.Equal(t, int64(48), f.stock(t, "shoes"))
	assert.Empty(t, f.cart(t, "user-1"))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t, shoes)
	f.add(t, "user-1", "shoes", 51)

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.EqualError(t, err, "Not enough stock for Running Shoes")

	assert.Equal(t, int64(50), f.stock(t, "shoes"))
	assert.Equal(t, []domain.CartLine{{ProductID: "shoes", Quantity: 51}}, f.cart(t, "user-1"))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t, shoes)

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	all, _ := f.ledger.ListAll(context.Background())
	assert.Empty(t, all)
}

func TestPlaceOrder_ProductGone(t *testing.T) {
	f := newFixture(t, shoes, jacket)
	f.add(t, "user-1", "shoes", 1)
	f.add(t, "user-1", "jacket", 1)

	_, err := f.catalog.Delete(context.Background(), "jacket")
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(context.Background(), "user-1", "")
	var gone *domain.ProductGoneError
	require.True(t, errors.As(err, &gone))
	assert.Equal(t, "jacket", gone.ProductID)
	assert.EqualError(t, err, "Product jacket no longer exists")

	assert.Equal(t, int64(50), f.stock(t, "shoes"))
	assert.Len(t, f.cart(t, "user-1"), 2)
}

func TestPlaceOrder_AllOrNothing(t *testing.T) {
	f := newFixture(t, shoes, jacket)
	f.add(t, "user-1", "shoes", 5)
	f.add(t, "user-1", "jacket", 31)

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.EqualError(t, err, "Not enough stock for Denim Jacket")

	assert.Equal(t, int64(50), f.stock(t, "shoes"))
	assert.Equal(t, int64(30), f.stock(t, "jacket"))
	assert.Len(t, f.cart(t, "user-1"), 2)
}

func TestPlaceOrder_TotalUsesPlacementTimePrice(t *testing.T) {
	f := newFixture(t, shoes, jacket)
	f.add(t, "user-1", "shoes", 1)
	f.add(t, "user-1", "jacket", 2)

	price := int64(4000)
	_, err := f.catalog.Update(context.Background(), "shoes", domain.ProductPatch{Price: &price})
	require.NoError(t, err)

	order, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(4000+2*2200), order.Total)

	// later price changes do not touch history
	price = 1
	f.catalog.Update(context.Background(), "shoes", domain.ProductPatch{Price: &price})
	orders, _ := f.ledger.ListByUser(context.Background(), "user-1")
	require.Len(t, orders, 1)
	assert.Equal(t, int64(8400), orders[0].Total)
}

func TestPlaceOrder_LastUnitRace(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t, domain.Product{ID: "last", Name: "Last One", Price: 100, Stock: 1})
		f.add(t, "alice", "last", 1)
		f.add(t, "bob", "last", 1)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, user := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(i int, user string) {
				defer wg.Done()
				_, errs[i] = f.svc.PlaceOrder(context.Background(), user, "")
			}(i, user)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, int64(0), f.stock(t, "last"))
	}
}

func TestPlaceOrder_Concurrent(t *testing.T) {
	initialStock := int64(20)
	totalRequests := 50

	f := newFixture(t, domain.Product{ID: "item", Name: "Flash Item", Price: 100, Stock: initialStock})
	for i := 0; i < totalRequests; i++ {
		f.add(t, fmt.Sprintf("user-%d", i), "item", 1)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := f.svc.PlaceOrder(context.Background(), fmt.Sprintf("user-%d", id), ""); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, int64(0), f.stock(t, "item"))

	all, _ := f.ledger.ListAll(context.Background())
	assert.Len(t, all, int(initialStock))
}

func TestPlaceOrder_SameUserTwiceConcurrently(t *testing.T) {
	f := newFixture(t, shoes)
	f.add(t, "user-1", "shoes", 3)

	var wg sync.WaitGroup
	var successCount atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.PlaceOrder(context.Background(), "user-1", ""); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load(), "the cart is consumed exactly once")
	assert.Equal(t, int64(47), f.stock(t, "shoes"))
}

type failingLedger struct {
	port.OrderLedger
}

func (failingLedger) Append(ctx context.Context, order domain.Order) error {
	return errors.New("disk on fire")
}

func TestPlaceOrder_LedgerFailureRollsBack(t *testing.T) {
	f := newFixture(t, shoes)
	f.svc = NewOrderService(f.catalog, f.carts, failingLedger{storage.NewMemoryLedger()}, 0)
	f.add(t, "user-1", "shoes", 2)

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	require.Error(t, err)
	assert.Equal(t, "internal", failureReason(err))

	assert.Equal(t, int64(50), f.stock(t, "shoes"))
	assert.Len(t, f.cart(t, "user-1"), 1)
}

func TestPlaceOrder_Idempotency(t *testing.T) {
	f := newFixture(t, shoes)
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 0, WithIdempotency(storage.NewMemoryIdempotency(time.Hour)))

	// a failed attempt releases the key
	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "key-1")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	f.add(t, "user-1", "shoes", 1)
	_, err = f.svc.PlaceOrder(context.Background(), "user-1", "key-1")
	require.NoError(t, err)

	f.add(t, "user-1", "shoes", 1)
	_, err = f.svc.PlaceOrder(context.Background(), "user-1", "key-1")
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
	assert.Equal(t, int64(49), f.stock(t, "shoes"))

	// keys are scoped per user
	f.add(t, "user-2", "shoes", 1)
	_, err = f.svc.PlaceOrder(context.Background(), "user-2", "key-1")
	assert.NoError(t, err)
}

func TestListOrders_Scope(t *testing.T) {
	f := newFixture(t, shoes)
	for _, user := range []string{"alice", "bob", "carol", "alice"} {
		f.add(t, user, "shoes", 1)
		_, err := f.svc.PlaceOrder(context.Background(), user, "")
		require.NoError(t, err)
	}

	mine, err := f.svc.ListOrders(context.Background(), domain.Identity{UserID: "alice", Role: domain.RoleCustomer})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, "alice", o.UserID)
	}

	all, err := f.svc.ListOrders(context.Background(), domain.Identity{UserID: "admin", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestPlaceOrder_QueuedForArchive(t *testing.T) {
	f := newFixture(t, shoes)
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 1)
	f.add(t, "user-1", "shoes", 2)

	order, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	queued := <-f.svc.GetOrderQueue()
	assert.Equal(t, order.ID, queued.ID)
	assert.Equal(t, int64(7000), queued.Total)

	f.svc.Close()
	f.svc.Close()
	_, open := <-f.svc.GetOrderQueue()
	assert.False(t, open)
}

func TestPlaceOrder_FullQueueDoesNotBlock(t *testing.T) {
	f := newFixture(t, shoes)
	m := metrics.New(prometheus.NewRegistry())
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 1, WithMetrics(m))
	defer f.svc.Close()

	for i := 0; i < 3; i++ {
		f.add(t, "user-1", "shoes", 1)
		_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
		require.NoError(t, err)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.OrdersPlaced))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ArchiveDropped))

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderFailures.WithLabelValues("empty_cart")))
}

func TestPlaceOrder_AfterCloseStillPlaces(t *testing.T) {
	f := newFixture(t, shoes)
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 4)
	f.svc.Close()

	f.add(t, "user-1", "shoes", 1)
	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.NoError(t, err)
}

func TestPlaceOrder_OverflowingTotalIsRejected(t *testing.T) {
	f := newFixture(t, domain.Product{ID: "bulk", Name: "Bulk", Price: 4, Stock: math.MaxInt64})
	m := metrics.New(prometheus.NewRegistry())
	f.svc = NewOrderService(f.catalog, f.carts, f.ledger, 0, WithMetrics(m))
	f.add(t, "user-1", "bulk", math.MaxInt64/2)

	_, err := f.svc.PlaceOrder(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrTotalTooLarge)

	assert.Equal(t, int64(math.MaxInt64), f.stock(t, "bulk"))
	assert.Len(t, f.cart(t, "user-1"), 1)
	all, _ := f.ledger.ListAll(context.Background())
	assert.Empty(t, all)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderFailures.WithLabelValues("invalid_input")))
}

func TestCartService_OverflowingAddKeepsCartPlaceable(t *testing.T) {
	f := newFixture(t, shoes)
	cs := NewCartService(f.catalog, f.carts)
	ctx := context.Background()

	_, err := cs.Add(ctx, "user-1", "shoes", math.MaxInt64)
	require.NoError(t, err)
	_, err = cs.Add(ctx, "user-1", "shoes", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = cs.Update(ctx, "user-1", "shoes", 2)
	require.NoError(t, err)
	order, err := f.svc.PlaceOrder(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7000), order.Total)
}

func TestFailureReason(t *testing.T) {
	tests := map[string]error{
		"empty_cart":         domain.ErrEmptyCart,
		"product_gone":       &domain.ProductGoneError{ProductID: "p"},
		"insufficient_stock": &domain.InsufficientStockError{ProductName: "p"},
		"duplicate_request":  domain.ErrDuplicateRequest,
		"invalid_input":      domain.ErrInvalidQuantity,
		"internal":           errors.New("boom"),
	}
	for want, err := range tests {
		assert.Equal(t, want, failureReason(err))
	}
	assert.Equal(t, "invalid_input", failureReason(domain.ErrTotalTooLarge))
}
