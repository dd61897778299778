package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	CourseIDs      []int64
	Contact        domain.ContactFields
	IdempotencyKey string
}

type IntentResult struct {
	IntentID     string
	ClientSecret string
	AmountMinor  int64
	Currency     string
}

// CreatePaymentIntent charges the live total of the selected cart items.
// Nothing is written locally: an abandoned intent leaves no state behind.
func (s *Service) CreatePaymentIntent(ctx context.Context, userID int64, req IntentRequest) (IntentResult, error) {
	if userID <= 0 {
		return IntentResult{}, fmt.Errorf("%w: userID is not positive", domain.ErrValidation)
	}

	cur, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return IntentResult{}, err
	}

	user, err := s.verifiedUser(ctx, userID)
	if err != nil {
		return IntentResult{}, err
	}

	if !req.Contact.IsEmpty() {
		if err := s.users.UpdateContact(ctx, userID, req.Contact); err != nil {
			return IntentResult{}, fmt.Errorf("users.UpdateContact: %w", err)
		}
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return IntentResult{}, fmt.Errorf("carts.GetOrCreate: %w", err)
	}

	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return IntentResult{}, fmt.Errorf("priceCart: %w", err)
	}

	selected, err := selectItems(priced, req.CourseIDs)
	if err != nil {
		return IntentResult{}, err
	}

	if selected.Currency != cur {
		return IntentResult{}, fmt.Errorf("%w: currency mismatch: requested %s, cart in %s", domain.ErrValidation, cur, selected.Currency)
	}

	total := selected.TotalPrice()
	requested := domain.Money{Amount: req.Amount, Currency: cur}
	if !total.Equal(requested) {
		return IntentResult{}, fmt.Errorf("%w: amount mismatch: requested %s, cart total %s",
			domain.ErrValidation, requested, total)
	}

	amountMinor := total.MinorUnits()
	if amountMinor <= 0 {
		return IntentResult{}, fmt.Errorf("%w: total %s is not chargeable", domain.ErrValidation, total)
	}

	gatewayCurrency := domain.GatewayCurrency(cur)
	courseIDs := selected.CourseIDs()

	key := req.IdempotencyKey
	if key == "" {
		key = deriveIdempotencyKey("intent", cart.ID, courseIDs, amountMinor, gatewayCurrency, req.Description)
	}

	metadata := domain.IntentMetadata{
		UserID:    userID,
		CourseIDs: courseIDs,
		CartID:    cart.ID,
	}

	intent, err := s.createIntent(ctx, port.CreateIntentParams{
		AmountMinor:    amountMinor,
		Currency:       gatewayCurrency,
		Description:    req.Description,
		ReceiptEmail:   user.Email,
		Metadata:       metadata.ToMap(),
		IdempotencyKey: key,
	})
	if err != nil {
		s.log(ctx).Error("create payment intent failed",
			zap.Int64("user_id", userID),
			zap.Int64("amount_minor", amountMinor),
			zap.Error(err))
		return IntentResult{}, fmt.Errorf("gateway.CreateIntent: %w", err)
	}

	s.metrics.IntentsCreated.Inc()
	s.log(ctx).Info("payment intent created",
		zap.Int64("user_id", userID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_minor", amountMinor),
		zap.String("currency", gatewayCurrency))

	return IntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountMinor:  amountMinor,
		Currency:     gatewayCurrency,
	}, nil
}

const maxIntentRekeys = 5

// createIntent returns a payable intent. A key that maps to a canceled or
// failed intent is chained to a fresh one.
func (s *Service) createIntent(ctx context.Context, params port.CreateIntentParams) (domain.PaymentIntent, error) {
	for range maxIntentRekeys {
		intent, err := s.gateway.CreateIntent(ctx, params)
		if err != nil {
			return domain.PaymentIntent{}, err
		}

		if !intent.Status.IsTerminal() || intent.Status == domain.IntentStatusSucceeded {
			return intent, nil
		}

		s.log(ctx).Info("idempotency key maps to a closed intent, rekeying",
			zap.String("intent_id", intent.ID),
			zap.Stringer("status", intent.Status))
		params.IdempotencyKey = nextIdempotencyKey("intent", params.IdempotencyKey, intent.ID)
	}

	return domain.PaymentIntent{}, fmt.Errorf("no payable intent after %d keys", maxIntentRekeys)
}

func (s *Service) verifiedUser(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: user[%d] does not exist", domain.ErrValidation, userID)
		}
		return domain.User{}, fmt.Errorf("users.GetUser: %w", err)
	}

	if !user.EmailVerified {
		return domain.User{}, fmt.Errorf("%w: email of user[%d] is not verified", domain.ErrValidation, userID)
	}

	return user, nil
}
