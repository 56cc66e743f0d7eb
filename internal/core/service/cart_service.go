package service

import (
	"context"
	"fmt"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/port"
)

// CartService never checks stock; stock is only validated at placement.
type CartService struct {
	catalog port.CatalogRepository
	carts   port.CartRepository
}

func NewCartService(catalog port.CatalogRepository, carts port.CartRepository) *CartService {
	return &CartService{catalog: catalog, carts: carts}
}

func (s *CartService) Get(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.carts.Get(ctx, userID)
}

func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error) {
	if productID == "" {
		return nil, &domain.InputError{Reason: "productId is required"}
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}

	return s.carts.AddOrIncrement(ctx, userID, productID, quantity)
}

func (s *CartService) Update(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartLine, error) {
	return s.carts.SetQuantity(ctx, userID, productID, quantity)
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) ([]domain.CartLine, error) {
	return s.carts.RemoveLine(ctx, userID, productID)
}
