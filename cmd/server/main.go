package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/shop-api/internal/adapter/auth"
	"github.com/rl1809/shop-api/internal/adapter/handler"
	"github.com/rl1809/shop-api/internal/adapter/handler/rpc"
	"github.com/rl1809/shop-api/internal/adapter/storage"
	"github.com/rl1809/shop-api/internal/adapter/worker"
	"github.com/rl1809/shop-api/internal/config"
	"github.com/rl1809/shop-api/internal/core/service"
	"github.com/rl1809/shop-api/internal/metrics"
	"github.com/rl1809/shop-api/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())

	// Idempotency keys: Redis when configured so every instance shares them
	var idempotency port.IdempotencyStore = storage.NewMemoryIdempotency(24 * time.Hour)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		redisAdapter := storage.NewRedisAdapter(rdb)
		if err := redisAdapter.Ping(ctx); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		idempotency = redisAdapter
		log.Println("connected to redis")
	}

	// Archive database is optional; without it the queue is disabled
	var archive *storage.SQLArchive
	queueSize := 0
	if cfg.ArchiveDSN != "" {
		archive, err = storage.OpenSQLArchive(ctx, cfg.ArchiveDriver, cfg.ArchiveDSN)
		if err != nil {
			log.Fatalf("failed to open archive: %v", err)
		}
		if err := archive.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate archive: %v", err)
		}
		queueSize = cfg.QueueSize
		log.Printf("connected to %s archive", cfg.ArchiveDriver)
	}

	catalog := storage.NewMemoryCatalog()
	carts := storage.NewMemoryCarts()
	ledger := storage.NewMemoryLedger()

	authService := service.NewAuthService(
		storage.NewMemoryUsers(),
		auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewBcryptHasher(cfg.BcryptCost),
	)
	catalogService := service.NewCatalogService(catalog)
	cartService := service.NewCartService(catalog, carts)
	orderService := service.NewOrderService(catalog, carts, ledger, queueSize,
		service.WithIdempotency(idempotency),
		service.WithMetrics(m),
	)

	if cfg.SeedDemo {
		if err := seed(ctx, authService, catalogService); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		log.Println("seeded demo admin and products")
	}

	// Start worker pool
	var pool *worker.ArchivePool
	if archive != nil {
		pool = worker.NewArchivePool(archive, m)
		pool.Start(cfg.WorkerCount, orderService.GetOrderQueue())
	}

	// Initialize gRPC server
	var grpcServer *grpc.Server
	if cfg.GRPCEnabled() {
		grpcServer = grpc.NewServer()
		rpc.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(authService, orderService))

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		go func() {
			log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
	}

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(handler.Services{
		Auth:    authService,
		Catalog: catalogService,
		Carts:   cartService,
		Orders:  orderService,
	}, m, cfg.StaticDir)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		log.Println("gRPC server stopped")
	}

	// Close order queue and wait for workers
	orderService.Close()
	if pool != nil {
		pool.Wait()
		log.Println("workers stopped")
	}

	if rdb != nil {
		rdb.Close()
	}
	if archive != nil {
		archive.Close()
	}
	log.Println("connections closed")
}
