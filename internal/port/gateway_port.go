package port

import (
	"context"

	"github.com/nikolayk812/course-checkout/internal/domain"
)

type CreateIntentParams struct {
	AmountMinor    int64
	Currency       string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

type CreateSessionParams struct {
	LineItems      []domain.LineItem
	Currency       string
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentGateway is the external payment processor. Get* calls are the source
// of truth for status; create calls must carry an idempotency key.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (domain.PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (domain.PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (domain.CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (domain.CheckoutSession, error)
}
