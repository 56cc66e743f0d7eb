package main

import (
	"context"
	"fmt"

	"github.com/rl1809/shop-api/internal/core/service"
)

var demoProducts = []service.NewProduct{
	{Name: "Running Shoes", Category: "Footwear", Price: 3500, Stock: 50},
	{Name: "Denim Jacket", Category: "Clothing", Price: 2200, Stock: 30},
	{Name: "Wireless Mouse", Category: "Electronics", Price: 799, Stock: 100},
}

func seed(ctx context.Context, authService *service.AuthService, catalogService *service.CatalogService) error {
	if _, err := authService.CreateAdmin(ctx, "Admin", "admin@example.com", "admin123"); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	for _, p := range demoProducts {
		if _, err := catalogService.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
	}
	return nil
}
