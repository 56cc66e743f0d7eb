package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/shop-api/internal/adapter/storage"
	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	catalog := storage.NewMemoryCatalog()
	carts := storage.NewMemoryCarts()
	ledger := storage.NewMemoryLedger()

	item, err := service.NewCatalogService(catalog).Create(ctx, service.NewProduct{
		Name:     "Flash Sale Item",
		Category: "Deals",
		Price:    100,
		Stock:    initialStock,
	})
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	cartService := service.NewCartService(catalog, carts)
	orderService := service.NewOrderService(catalog, carts, ledger, queueSize)
	defer orderService.Close()

	// Drain the order queue in background
	go func() {
		for range orderService.GetOrderQueue() {
		}
	}()

	for i := 0; i < totalRequests; i++ {
		if _, err := cartService.Add(ctx, fmt.Sprintf("user-%d", i), item.ID, 1); err != nil {
			log.Fatalf("failed to fill cart: %v", err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := orderService.PlaceOrder(ctx, fmt.Sprintf("user-%d", userID), "")
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	// Verify final stock
	product, err := catalog.Get(ctx, item.ID)
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", product.Stock)

	if product.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", product.Stock)
	}

	// Every committed order must be in the ledger exactly once
	orders, err := ledger.ListAll(ctx)
	if err != nil {
		log.Fatalf("failed to read ledger: %v", err)
	}
	var units int64
	for _, o := range orders {
		units += totalQuantity(o)
	}
	if len(orders) == int(success) && units == initialStock {
		fmt.Printf("PASS: Ledger holds %d orders for %d units\n", len(orders), units)
	} else {
		fmt.Printf("FAIL: Ledger holds %d orders for %d units\n", len(orders), units)
	}
}

func totalQuantity(o domain.Order) int64 {
	var n int64
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
