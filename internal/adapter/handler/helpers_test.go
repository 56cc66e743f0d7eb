package handler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/shop-api/internal/adapter/auth"
	"github.com/rl1809/shop-api/internal/adapter/storage"
	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/core/service"
	"github.com/rl1809/shop-api/internal/metrics"
)

type testApp struct {
	services Services
	catalog  *storage.MemoryCatalog
	metrics  *metrics.Metrics
	shoesID  string
	mouseID  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	catalog := storage.NewMemoryCatalog()
	carts := storage.NewMemoryCarts()
	ledger := storage.NewMemoryLedger()
	m := metrics.New(prometheus.NewRegistry())

	authSvc := service.NewAuthService(storage.NewMemoryUsers(), auth.NewJWTIssuer("test-secret", time.Hour), auth.NewBcryptHasher(bcrypt.MinCost))
	_, err := authSvc.CreateAdmin(ctx, "Admin", "admin@example.com", "admin123")
	require.NoError(t, err)

	catalogSvc := service.NewCatalogService(catalog)
	shoes, err := catalogSvc.Create(ctx, service.NewProduct{Name: "Running Shoes", Category: "Footwear", Price: 3500, Stock: 50})
	require.NoError(t, err)
	mouse, err := catalogSvc.Create(ctx, service.NewProduct{Name: "Wireless Mouse", Category: "Electronics", Price: 799, Stock: 100})
	require.NoError(t, err)

	return &testApp{
		services: Services{
			Auth:    authSvc,
			Catalog: catalogSvc,
			Carts:   service.NewCartService(catalog, carts),
			Orders: service.NewOrderService(catalog, carts, ledger, 0,
				service.WithIdempotency(storage.NewMemoryIdempotency(time.Hour)),
				service.WithMetrics(m),
			),
		},
		catalog: catalog,
		metrics: m,
		shoesID: shoes.ID,
		mouseID: mouse.ID,
	}
}

func (a *testApp) stock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := a.catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (a *testApp) token(t *testing.T, email, password string) string {
	t.Helper()
	token, err := a.services.Auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	return token
}

func (a *testApp) customer(t *testing.T, name string) (string, domain.Identity) {
	t.Helper()
	token, err := a.services.Auth.Register(context.Background(), name, name+"@example.com", "pw")
	require.NoError(t, err)
	id, err := a.services.Auth.ResolveIdentity(token)
	require.NoError(t, err)
	return token, id
}
