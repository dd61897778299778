package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"
)

type Config struct {
	SecretKey string
	// APIURL overrides the Stripe API base URL, empty means production.
	APIURL string

	Timeout              time.Duration
	MaxRetries           uint64
	RetryInitialInterval time.Duration
	BreakerFailures      uint32
	BreakerOpenTimeout   time.Duration

	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 200 * time.Millisecond
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = 30 * time.Second
	}
	return c
}

type stripeGateway struct {
	intents  *paymentintent.Client
	sessions *session.Client
	breaker  *gobreaker.CircuitBreaker[any]
	cfg      Config
	logger   *zap.Logger
}

func NewStripe(cfg Config, logger *zap.Logger) (port.PaymentGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg = cfg.withDefaults()

	backendConfig := &stripe.BackendConfig{
		// retries are driven by backoff so creates are never repeated blindly
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}
	if cfg.HTTPClient != nil {
		backendConfig.HTTPClient = cfg.HTTPClient
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	return &stripeGateway{
		intents:  &paymentintent.Client{B: backend, Key: cfg.SecretKey},
		sessions: &session.Client{B: backend, Key: cfg.SecretKey},
		breaker:  newBreaker(cfg, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (g *stripeGateway) CreateIntent(ctx context.Context, p port.CreateIntentParams) (domain.PaymentIntent, error) {
	if p.AmountMinor <= 0 {
		return domain.PaymentIntent{}, fmt.Errorf("%w: amount[%d] must be positive", domain.ErrValidation, p.AmountMinor)
	}
	if p.Currency == "" {
		return domain.PaymentIntent{}, fmt.Errorf("%w: currency is empty", domain.ErrValidation)
	}
	if p.IdempotencyKey == "" {
		return domain.PaymentIntent{}, fmt.Errorf("idempotency key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountMinor),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(p.IdempotencyKey)
	params.Context = ctx

	pi, err := execute(g.breaker, func() (*stripe.PaymentIntent, error) {
		return g.intents.New(params)
	})
	if err != nil {
		return domain.PaymentIntent{}, mapError("paymentintent.New", err)
	}

	return mapIntentToDomain(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error) {
	if intentID == "" {
		return domain.PaymentIntent{}, fmt.Errorf("%w: intentID is empty", domain.ErrValidation)
	}

	pi, err := retryRead(ctx, g, func(ctx context.Context) (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx

		return g.intents.Get(intentID, params)
	})
	if err != nil {
		return domain.PaymentIntent{}, mapError("paymentintent.Get", err)
	}

	return mapIntentToDomain(pi), nil
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p port.CreateSessionParams) (domain.CheckoutSession, error) {
	if len(p.LineItems) == 0 {
		return domain.CheckoutSession{}, fmt.Errorf("%w: line items are empty", domain.ErrValidation)
	}
	if p.IdempotencyKey == "" {
		return domain.CheckoutSession{}, fmt.Errorf("idempotency key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	for _, li := range p.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Title),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		if li.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{li.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.Currency),
				UnitAmount:  stripe.Int64(li.UnitAmountMinor),
				ProductData: product,
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("payment_intent")
	params.SetIdempotencyKey(p.IdempotencyKey)
	params.Context = ctx

	s, err := execute(g.breaker, func() (*stripe.CheckoutSession, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return domain.CheckoutSession{}, mapError("session.New", err)
	}

	return mapSessionToDomain(s), nil
}

func (g *stripeGateway) GetSession(ctx context.Context, sessionID string) (domain.CheckoutSession, error) {
	if sessionID == "" {
		return domain.CheckoutSession{}, fmt.Errorf("%w: sessionID is empty", domain.ErrValidation)
	}

	s, err := retryRead(ctx, g, func(ctx context.Context) (*stripe.CheckoutSession, error) {
		params := &stripe.CheckoutSessionParams{}
		params.AddExpand("payment_intent")
		params.Context = ctx

		return g.sessions.Get(sessionID, params)
	})
	if err != nil {
		return domain.CheckoutSession{}, mapError("session.Get", err)
	}

	return mapSessionToDomain(s), nil
}

func mapIntentToDomain(pi *stripe.PaymentIntent) domain.PaymentIntent {
	return domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       mapIntentStatus(pi),
		Metadata:     pi.Metadata,
	}
}

func mapSessionToDomain(s *stripe.CheckoutSession) domain.CheckoutSession {
	result := domain.CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}

	if s.PaymentIntent != nil {
		result.PaymentIntentID = s.PaymentIntent.ID
		result.ClientSecret = s.PaymentIntent.ClientSecret
	}

	return result
}

func mapIntentStatus(pi *stripe.PaymentIntent) domain.IntentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.IntentStatusCanceled
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresCapture:
		return domain.IntentStatusPending
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// a declined attempt sends the intent back to requires_payment_method
		if pi.LastPaymentError != nil {
			return domain.IntentStatusFailed
		}
		return domain.IntentStatusCreated
	default:
		return domain.IntentStatusPending
	}
}
