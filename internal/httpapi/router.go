package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/checkout"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Checkout is the part of *checkout.Service the HTTP layer calls.
type Checkout interface {
	CreatePaymentIntent(ctx context.Context, userID int64, req checkout.IntentRequest) (checkout.IntentResult, error)
	ConfirmPayment(ctx context.Context, intentID string) (checkout.ConfirmResult, error)
	CreateCheckoutSession(ctx context.Context, userID int64, returnURL, idempotencyKey string) (checkout.SessionResult, error)
	ConfirmSession(ctx context.Context, sessionID string) (checkout.ConfirmResult, error)

	GetCart(ctx context.Context, userID int64) (domain.PricedCart, error)
	AddToCart(ctx context.Context, userID, courseID int64, quantity int) (domain.CartItem, error)
	UpdateCartItem(ctx context.Context, userID int64, itemID uuid.UUID, quantity int) error
	RemoveCartItem(ctx context.Context, userID int64, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID int64) error
}

type Config struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handler struct {
	svc    Checkout
	logger *zap.Logger
}

func NewRouter(svc Checkout, cfg Config, logger *zap.Logger, m *metrics.ServerMetrics, gatherer prometheus.Gatherer) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	if m != nil {
		r.Use(metricsMiddleware(m))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(userMiddleware)

		r.Route("/payment", func(r chi.Router) {
			r.Post("/intent", h.CreateIntent)
			r.Post("/confirm", h.ConfirmPayment)
			r.Post("/checkout-session", h.CreateCheckoutSession)
			r.Get("/success", h.CheckoutSuccess)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{itemId}", h.UpdateItem)
			r.Delete("/items/{itemId}", h.RemoveItem)
		})
	})

	return r
}
