package checkout

import (
	"context"
	"fmt"

	"github.com/nikolayk812/course-checkout/internal/domain"
	"go.uber.org/zap"
)

type ConfirmResult struct {
	Success bool
	Status  domain.IntentStatus
	Message string
}

// ConfirmPayment re-reads the intent from the gateway and settles it when it
// succeeded. Confirmations of the same intent running in this process share
// one execution.
func (s *Service) ConfirmPayment(ctx context.Context, intentID string) (ConfirmResult, error) {
	if intentID == "" {
		return ConfirmResult{}, fmt.Errorf("%w: intentID is empty", domain.ErrValidation)
	}

	v, err, shared := s.confirms.Do(intentID, func() (any, error) {
		// a settlement that started must not be abandoned with the caller
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SettleTimeout)
		defer cancel()

		return s.confirm(flightCtx, intentID)
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	if shared {
		s.log(ctx).Debug("confirmation coalesced", zap.String("intent_id", intentID))
	}

	return v.(ConfirmResult), nil
}

func (s *Service) confirm(ctx context.Context, intentID string) (ConfirmResult, error) {
	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("gateway.GetIntent: %w", err)
	}

	s.metrics.Confirmations.WithLabelValues(intent.Status.String()).Inc()

	if intent.Status != domain.IntentStatusSucceeded {
		return ConfirmResult{
			Success: false,
			Status:  intent.Status,
			Message: statusMessage(intent.Status),
		}, nil
	}

	if err := s.settle(ctx, intent); err != nil {
		s.metrics.Settlements.WithLabelValues("failed").Inc()
		s.log(ctx).Error("settlement failed",
			zap.String("intent_id", intent.ID),
			zap.Error(err))
		return ConfirmResult{}, fmt.Errorf("settle: %w", err)
	}

	return ConfirmResult{
		Success: true,
		Status:  domain.IntentStatusSucceeded,
		Message: statusMessage(domain.IntentStatusSucceeded),
	}, nil
}

func statusMessage(status domain.IntentStatus) string {
	switch status {
	case domain.IntentStatusSucceeded:
		return "payment confirmed, courses unlocked"
	case domain.IntentStatusFailed:
		return "payment failed"
	case domain.IntentStatusCanceled:
		return "payment was canceled"
	case domain.IntentStatusCreated:
		return "payment has not been submitted"
	default:
		return "payment is still processing"
	}
}
