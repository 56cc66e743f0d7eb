package handler

import (
	"context"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/shop-api/internal/adapter/handler/rpc"
	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/core/service"
)

type GRPCHandler struct {
	auth         *service.AuthService
	orderService *service.OrderService
}

func NewGRPCHandler(auth *service.AuthService, orderService *service.OrderService) *GRPCHandler {
	return &GRPCHandler{auth: auth, orderService: orderService}
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *rpc.PlaceOrderRequest) (*rpc.PlaceOrderResponse, error) {
	id, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}

	order, err := h.orderService.PlaceOrder(ctx, id.UserID, req.IdempotencyKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.PlaceOrderResponse{Order: order}, nil
}

func (h *GRPCHandler) ListOrders(ctx context.Context, req *rpc.ListOrdersRequest) (*rpc.ListOrdersResponse, error) {
	id, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := h.orderService.ListOrders(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ListOrdersResponse{Orders: orders}, nil
}

// identity reads "authorization: Bearer <token>" from incoming metadata.
func (h *GRPCHandler) identity(ctx context.Context) (domain.Identity, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			var err error
			if token, err = bearerToken(values[0]); err != nil {
				return domain.Identity{}, toStatus(err)
			}
		}
	}

	id, err := h.auth.ResolveIdentity(token)
	if err != nil {
		return domain.Identity{}, toStatus(err)
	}
	return id, nil
}

func toStatus(err error) error {
	e := describe(err)
	return status.Error(e.code, e.message)
}
