package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/course-checkout/internal/metrics"
	"github.com/nikolayk812/course-checkout/internal/port"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"
	"go.uber.org/zap"
)

type Deps struct {
	Carts       port.CartRepository
	Courses     port.CourseCatalog
	Users       port.UserDirectory
	Gateway     port.PaymentGateway
	Ledger      port.PaymentLedger
	Enrollments port.EnrollmentStore
}

type Config struct {
	// Currency is reported for carts that have no items yet.
	Currency currency.Unit
	// SettleTimeout bounds a confirmation once it started, even when the caller goes away.
	SettleTimeout time.Duration
	// PricingConcurrency limits parallel catalog reads while pricing a cart.
	PricingConcurrency int
}

// Service is the checkout orchestrator: it builds intents and sessions from the
// live cart, confirms their status with the gateway and settles succeeded intents.
type Service struct {
	carts       port.CartRepository
	courses     port.CourseCatalog
	users       port.UserDirectory
	gateway     port.PaymentGateway
	ledger      port.PaymentLedger
	enrollments port.EnrollmentStore

	cfg     Config
	logger  *zap.Logger
	metrics *metrics.CheckoutMetrics

	confirms singleflight.Group
	now      func() time.Time
}

func NewService(deps Deps, cfg Config, logger *zap.Logger, m *metrics.CheckoutMetrics) (*Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("carts is nil")
	case deps.Courses == nil:
		return nil, fmt.Errorf("courses is nil")
	case deps.Users == nil:
		return nil, fmt.Errorf("users is nil")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("gateway is nil")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger is nil")
	case deps.Enrollments == nil:
		return nil, fmt.Errorf("enrollments is nil")
	case m == nil:
		return nil, fmt.Errorf("metrics is nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == (currency.Unit{}) {
		cfg.Currency = currency.USD
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 30 * time.Second
	}
	if cfg.PricingConcurrency <= 0 {
		cfg.PricingConcurrency = 8
	}

	return &Service{
		carts:       deps.Carts,
		courses:     deps.Courses,
		users:       deps.Users,
		gateway:     deps.Gateway,
		ledger:      deps.Ledger,
		enrollments: deps.Enrollments,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}, nil
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}
