package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"go.uber.org/zap"
)

// settle records the purchase of a succeeded intent. Every step is safe to
// repeat, a failed settlement is finished by the next confirmation.
func (s *Service) settle(ctx context.Context, intent domain.PaymentIntent) error {
	logger := s.log(ctx).With(zap.String("intent_id", intent.ID))

	md, err := domain.ParseIntentMetadata(intent.Metadata)
	if err != nil {
		logger.Error("intent metadata is malformed", zap.Any("metadata", intent.Metadata), zap.Error(err))
		return fmt.Errorf("%w: intent[%s]: %w", domain.ErrInternal, intent.ID, err)
	}
	logger = logger.With(zap.Int64("user_id", md.UserID))

	existing, err := s.ledger.GetSettlement(ctx, intent.ID)
	switch {
	case err == nil && existing.IsCompleted():
		s.metrics.Settlements.WithLabelValues("duplicate").Inc()
		logger.Info("intent already settled")
		return nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("ledger.GetSettlement: %w", err)
	}

	cur, err := domain.ParseCurrency(intent.Currency)
	if err != nil {
		return fmt.Errorf("%w: intent[%s]: %w", domain.ErrInternal, intent.ID, err)
	}
	if intent.AmountMinor <= 0 {
		return fmt.Errorf("%w: intent[%s] amount[%d] is not positive", domain.ErrInternal, intent.ID, intent.AmountMinor)
	}

	payments, err := s.splitPayments(ctx, intent, md, cur)
	if err != nil {
		return fmt.Errorf("splitPayments: %w", err)
	}

	recorded, err := s.ledger.RecordPayments(ctx, domain.Settlement{
		IntentID:    intent.ID,
		UserID:      md.UserID,
		CartID:      md.CartID,
		AmountMinor: intent.AmountMinor,
		Currency:    cur.String(),
		Status:      domain.SettlementStatusRecording,
	}, payments)
	if err != nil {
		return fmt.Errorf("ledger.RecordPayments: %w", err)
	}
	logger.Info("payments recorded", zap.Int("payments", len(recorded)))

	for _, courseID := range md.CourseIDs {
		if err := s.grant(ctx, md.UserID, courseID); err != nil {
			return fmt.Errorf("grant course[%d]: %w", courseID, err)
		}
	}

	settledAt := s.now().UTC()
	completed, err := s.ledger.CompleteSettlement(ctx, intent.ID, md.CartID, md.CourseIDs, domain.PurchaseEvent{
		EventID:   uuid.New(),
		IntentID:  intent.ID,
		UserID:    md.UserID,
		CourseIDs: md.CourseIDs,
		Amount:    domain.MoneyFromMinor(intent.AmountMinor, cur).AmountString(),
		Currency:  cur.String(),
		SettledAt: settledAt,
	})
	if err != nil {
		return fmt.Errorf("ledger.CompleteSettlement: %w", err)
	}

	if !completed {
		s.metrics.Settlements.WithLabelValues("duplicate").Inc()
		logger.Info("settlement completed by a concurrent confirmation")
		return nil
	}

	s.metrics.Settlements.WithLabelValues("completed").Inc()
	logger.Info("settlement completed",
		zap.Int64s("course_ids", md.CourseIDs),
		zap.Int64("amount_minor", intent.AmountMinor))

	return nil
}

// splitPayments attributes the intent total to its courses in proportion to
// their line totals: live price times the quantity still in the cart.
func (s *Service) splitPayments(ctx context.Context, intent domain.PaymentIntent, md domain.IntentMetadata, cur currency.Unit) ([]domain.Payment, error) {
	quantities, err := s.purchasedQuantities(ctx, md)
	if err != nil {
		return nil, err
	}

	weights := make([]decimal.Decimal, 0, len(md.CourseIDs))
	for _, courseID := range md.CourseIDs {
		course, err := s.courses.GetCourse(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("courses.GetCourse[%d]: %w", courseID, err)
		}
		weights = append(weights, course.Price.Times(quantities[courseID]).Amount)
	}

	shares, err := domain.SplitAmount(intent.AmountMinor, weights)
	if err != nil {
		return nil, fmt.Errorf("domain.SplitAmount: %w", err)
	}

	paidAt := s.now().UTC()
	payments := make([]domain.Payment, 0, len(shares))
	for i, share := range shares {
		payments = append(payments, domain.Payment{
			ID:         uuid.New(),
			UserID:     md.UserID,
			CourseID:   md.CourseIDs[i],
			Amount:     domain.MoneyFromMinor(share, cur),
			Method:     domain.PaymentMethodCard,
			Status:     domain.PaymentStatusCompleted,
			ExternalID: intent.ID,
			PaidAt:     paidAt,
		})
	}

	return payments, nil
}

// purchasedQuantities reads item quantities from the cart the intent was built
// from. Courses no longer in that cart count once.
func (s *Service) purchasedQuantities(ctx context.Context, md domain.IntentMetadata) (map[int64]int, error) {
	quantities := make(map[int64]int, len(md.CourseIDs))
	for _, courseID := range md.CourseIDs {
		quantities[courseID] = 1
	}

	cart, err := s.carts.GetOrCreate(ctx, md.UserID)
	if err != nil {
		return nil, fmt.Errorf("carts.GetOrCreate: %w", err)
	}
	if cart.ID != md.CartID {
		return quantities, nil
	}

	for _, courseID := range md.CourseIDs {
		if item, ok := cart.ItemByCourse(courseID); ok {
			quantities[courseID] = item.Quantity
		}
	}

	return quantities, nil
}

// grant enrolls the user unless already enrolled. Losing a concurrent insert
// race is success.
func (s *Service) grant(ctx context.Context, userID, courseID int64) error {
	exists, err := s.enrollments.Exists(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("enrollments.Exists: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := s.enrollments.Create(ctx, userID, courseID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("enrollments.Create: %w", err)
	}

	return nil
}
