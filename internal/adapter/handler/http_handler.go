package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/core/service"
	"github.com/rl1809/shop-api/internal/metrics"
)

const IdempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	carts    *service.CartService
	orders   *service.OrderService
	metrics  *metrics.Metrics
	staticFS http.Handler
}

type Services struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    *int64 `json:"price"`
	Stock    *int64 `json:"stock"`
}

type CartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int64 `json:"quantity"`
}

type RemovedResponse struct {
	Removed []domain.Product `json:"removed"`
}

// NewHTTPHandler wires the services. staticDir may be empty; m may be nil.
func NewHTTPHandler(s Services, m *metrics.Metrics, staticDir string) *HTTPHandler {
	h := &HTTPHandler{
		auth:    s.Auth,
		catalog: s.Catalog,
		carts:   s.Carts,
		orders:  s.Orders,
		metrics: m,
	}
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			h.staticFS = http.FileServer(http.Dir(staticDir))
		}
	}
	return h
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(h.authRequired)

		r.Group(func(r chi.Router) {
			r.Use(roleRequired(domain.RoleAdmin))
			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
		})

		r.Get("/cart", h.GetCart)
		r.Post("/cart", h.AddToCart)
		r.Put("/cart", h.UpdateCart)
		r.Delete("/cart/{productId}", h.RemoveFromCart)

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
	})

	r.NotFound(h.notFound)
	return r
}

func (h *HTTPHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if h.staticFS != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		h.staticFS.ServeHTTP(w, r)
		return
	}
	writeMessage(w, http.StatusNotFound, "Not found")
}

func (h *HTTPHandler) instrument(next http.Handler) http.Handler {
	if h.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.Requests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		h.metrics.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, okPage := queryInt(q.Get("page"), 1)
	limit, okLimit := queryInt(q.Get("limit"), 10)
	if !okPage || !okLimit {
		writeMessage(w, http.StatusBadRequest, "page and limit must be positive integers")
		return
	}

	result, err := h.catalog.List(r.Context(), domain.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Category == "" || req.Price == nil || req.Stock == nil {
		writeMessage(w, http.StatusBadRequest, "All fields required")
		return
	}

	p, err := h.catalog.Create(r.Context(), service.NewProduct{
		Name:     req.Name,
		Category: req.Category,
		Price:    *req.Price,
		Stock:    *req.Stock,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if !decode(w, r, &patch) {
		return
	}

	p, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: []domain.Product{p}})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Get(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req CartLineRequest
	if !decode(w, r, &req) {
		return
	}

	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	lines, err := h.carts.Add(r.Context(), identityFrom(r.Context()).UserID, req.ProductID, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *HTTPHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req CartLineRequest
	if !decode(w, r, &req) {
		return
	}

	var quantity int64
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	lines, err := h.carts.Update(r.Context(), identityFrom(r.Context()).UserID, req.ProductID, quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *HTTPHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Remove(r.Context(), identityFrom(r.Context()).UserID, chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	order, err := h.orders.PlaceOrder(r.Context(), id.UserID, r.Header.Get(IdempotencyHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func queryInt(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	e := describe(err)
	writeMessage(w, e.status, e.message)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
