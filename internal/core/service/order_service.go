package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/logging"
	"github.com/rl1809/shop-api/internal/metrics"
	"github.com/rl1809/shop-api/internal/port"
)

const serviceName = "order-service"

// OrderService turns a user's cart into an immutable order. Validation,
// stock reservation, ledger append and cart clearing happen while the
// user's cart is locked and every referenced product is locked.
type OrderService struct {
	catalog     port.CatalogRepository
	carts       port.CartRepository
	ledger      port.OrderLedger
	idempotency port.IdempotencyStore
	metrics     *metrics.Metrics

	queueMu    sync.RWMutex
	orderQueue chan domain.Order
	closed     bool

	now   func() time.Time
	newID func() string
}

type Option func(*OrderService)

func WithIdempotency(store port.IdempotencyStore) Option {
	return func(s *OrderService) { s.idempotency = store }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *OrderService) { s.metrics = m }
}

// NewOrderService creates the placement engine. A queueSize of 0 disables
// the archive queue.
func NewOrderService(catalog port.CatalogRepository, carts port.CartRepository, ledger port.OrderLedger, queueSize int, opts ...Option) *OrderService {
	s := &OrderService{
		catalog: catalog,
		carts:   carts,
		ledger:  ledger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if queueSize > 0 {
		s.orderQueue = make(chan domain.Order, queueSize)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder places the caller's cart. A non-empty idempotencyKey is claimed
// first; a repeated key fails with domain.ErrDuplicateRequest.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, idempotencyKey string) (order domain.Order, err error) {
	start := time.Now()
	defer func() { s.record(userID, order.ID, start, err) }()

	if idempotencyKey != "" && s.idempotency != nil {
		key := fmt.Sprintf("order:%s:%s", userID, idempotencyKey)

		ok, claimErr := s.idempotency.SetIdempotency(ctx, key)
		if claimErr != nil {
			return domain.Order{}, fmt.Errorf("idempotency check failed: %w", claimErr)
		}
		if !ok {
			return domain.Order{}, domain.ErrDuplicateRequest
		}

		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), key); releaseErr != nil {
				logging.Log(logging.Fields{Service: serviceName, UserID: userID, Step: "release_idempotency", Status: "error", Message: releaseErr.Error()})
			}
		}()
	}

	order, err = s.place(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}

	s.enqueue(order)
	return order, nil
}

func (s *OrderService) place(ctx context.Context, userID string) (domain.Order, error) {
	var order domain.Order

	err := s.carts.Checkout(ctx, userID, func(lines []domain.CartLine) error {
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		items, err := s.catalog.ReserveAll(ctx, lines)
		if err != nil {
			return err
		}

		order = domain.NewOrder(s.newID(), userID, items, s.now())

		if err := s.ledger.Append(ctx, order); err != nil {
			if rollbackErr := s.catalog.Release(ctx, items); rollbackErr != nil {
				logging.Log(logging.Fields{Service: serviceName, OrderID: order.ID, UserID: userID, Step: "rollback", Status: "critical", Message: rollbackErr.Error()})
			}
			return fmt.Errorf("append order: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// ListOrders returns every order for admins and only the caller's own
// orders otherwise.
func (s *OrderService) ListOrders(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	if identity.IsAdmin() {
		return s.ledger.ListAll(ctx)
	}
	return s.ledger.ListByUser(ctx, identity.UserID)
}

func (s *OrderService) enqueue(order domain.Order) {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()

	if s.orderQueue == nil || s.closed {
		return
	}

	select {
	case s.orderQueue <- order:
	default:
		if s.metrics != nil {
			s.metrics.ArchiveDropped.Inc()
		}
		logging.Log(logging.Fields{Service: serviceName, OrderID: order.ID, UserID: order.UserID, Step: "enqueue_archive", Status: "dropped", Message: "archive queue full"})
	}
}

func (s *OrderService) record(userID, orderID string, start time.Time, err error) {
	fields := logging.Fields{
		Service:    serviceName,
		OrderID:    orderID,
		UserID:     userID,
		Step:       "place_order",
		Status:     "ok",
		DurationMS: time.Since(start).Milliseconds(),
	}

	if err != nil {
		fields.Status = failureReason(err)
		fields.Message = err.Error()
	}
	logging.Log(fields)

	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.OrderFailures.WithLabelValues(failureReason(err)).Inc()
		return
	}
	s.metrics.OrdersPlaced.Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrProductGone):
		return "product_gone"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	}
	return "internal"
}

func (s *OrderService) GetOrderQueue() <-chan domain.Order {
	return s.orderQueue
}

// Close stops accepting archive jobs. Workers drain what is already queued.
func (s *OrderService) Close() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.orderQueue != nil {
		close(s.orderQueue)
	}
}
