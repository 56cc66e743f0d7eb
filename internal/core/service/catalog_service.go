package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/port"
)

type NewProduct struct {
	Name     string
	Category string
	Price    int64
	Stock    int64
}

type CatalogService struct {
	catalog port.CatalogRepository
}

func NewCatalogService(catalog port.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) List(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	if filter.Page < 1 || filter.Limit < 1 {
		return domain.ProductPage{}, &domain.InputError{Reason: "page and limit must be positive integers"}
	}
	return s.catalog.List(ctx, filter)
}

func (s *CatalogService) Get(ctx context.Context, productID string) (domain.Product, error) {
	return s.catalog.Get(ctx, productID)
}

func (s *CatalogService) Create(ctx context.Context, in NewProduct) (domain.Product, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return domain.Product{}, &domain.InputError{Reason: "All fields required"}
	}
	if in.Price < 0 || in.Stock < 0 {
		return domain.Product{}, &domain.InputError{Reason: "price and stock must be >= 0"}
	}

	return s.catalog.Create(ctx, domain.Product{
		ID:       uuid.NewString(),
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Stock:    in.Stock,
	})
}

func (s *CatalogService) Update(ctx context.Context, productID string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}
	return s.catalog.Update(ctx, productID, patch)
}

func (s *CatalogService) Delete(ctx context.Context, productID string) (domain.Product, error) {
	return s.catalog.Delete(ctx, productID)
}
