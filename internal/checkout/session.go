package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"go.uber.org/zap"
)

const (
	sessionIDPlaceholder = "session_id={CHECKOUT_SESSION_ID}"
	canceledParam        = "canceled=true"
)

type SessionResult struct {
	SessionID       string
	URL             string
	PaymentIntentID string
	ClientSecret    string
}

// CreateCheckoutSession starts a hosted checkout for the whole cart. The
// session is settled later through ConfirmSession or ConfirmPayment.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID int64, returnURL, idempotencyKey string) (SessionResult, error) {
	if userID <= 0 {
		return SessionResult{}, fmt.Errorf("%w: userID is not positive", domain.ErrValidation)
	}

	base, err := parseReturnURL(returnURL)
	if err != nil {
		return SessionResult{}, err
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("carts.GetOrCreate: %w", err)
	}
	if cart.IsEmpty() {
		return SessionResult{}, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return SessionResult{}, fmt.Errorf("%w: user[%d] does not exist", domain.ErrValidation, userID)
		}
		return SessionResult{}, fmt.Errorf("users.GetUser: %w", err)
	}

	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return SessionResult{}, fmt.Errorf("priceCart: %w", err)
	}

	total := priced.TotalPrice()
	amountMinor := total.MinorUnits()
	if amountMinor <= 0 {
		return SessionResult{}, fmt.Errorf("%w: total %s is not chargeable", domain.ErrValidation, total)
	}

	gatewayCurrency := domain.GatewayCurrency(priced.Currency)
	courseIDs := priced.CourseIDs()

	if idempotencyKey == "" {
		idempotencyKey = deriveIdempotencyKey("session", cart.ID, courseIDs, amountMinor, gatewayCurrency, "")
	}

	metadata := domain.IntentMetadata{
		UserID:    userID,
		CourseIDs: courseIDs,
		CartID:    cart.ID,
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, port.CreateSessionParams{
		LineItems:      lineItems(priced),
		Currency:       gatewayCurrency,
		SuccessURL:     withQuery(base, sessionIDPlaceholder),
		CancelURL:      withQuery(base, canceledParam),
		CustomerEmail:  user.Email,
		Metadata:       metadata.ToMap(),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		s.log(ctx).Error("create checkout session failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return SessionResult{}, fmt.Errorf("gateway.CreateCheckoutSession: %w", err)
	}

	s.metrics.SessionsCreated.Inc()
	s.log(ctx).Info("checkout session created",
		zap.Int64("user_id", userID),
		zap.String("session_id", session.ID))

	return SessionResult{
		SessionID:       session.ID,
		URL:             session.URL,
		PaymentIntentID: session.PaymentIntentID,
		ClientSecret:    session.ClientSecret,
	}, nil
}

// ConfirmSession settles the intent behind a hosted checkout session. A
// session without an intent has not been paid yet.
func (s *Service) ConfirmSession(ctx context.Context, sessionID string) (ConfirmResult, error) {
	if sessionID == "" {
		return ConfirmResult{}, fmt.Errorf("%w: sessionID is empty", domain.ErrValidation)
	}

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("gateway.GetSession: %w", err)
	}

	if session.PaymentIntentID == "" {
		return ConfirmResult{
			Success: false,
			Status:  domain.IntentStatusPending,
			Message: statusMessage(domain.IntentStatusPending),
		}, nil
	}

	return s.ConfirmPayment(ctx, session.PaymentIntentID)
}

func lineItems(priced domain.PricedCart) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(priced.Items))

	for _, item := range priced.Items {
		var description string
		if item.Course.InstructorName != "" {
			description = "by " + item.Course.InstructorName
		}

		items = append(items, domain.LineItem{
			Title:           item.Course.Title,
			Description:     description,
			ImageURL:        item.Course.ThumbnailURL,
			UnitAmountMinor: item.UnitPrice().MinorUnits(),
			Quantity:        int64(item.Quantity),
		})
	}

	return items
}

func parseReturnURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: returnUrl[%s] must be an absolute http(s) URL", domain.ErrValidation, raw)
	}

	u.Fragment = ""
	return u.String(), nil
}

// withQuery appends a raw query pair, the gateway placeholder must stay unescaped.
func withQuery(base, pair string) string {
	if strings.Contains(base, "?") {
		return base + "&" + pair
	}
	return base + "?" + pair
}
