package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
)

type PaymentLedger interface {
	// GetSettlement returns domain.ErrNotFound when the intent was never settled.
	GetSettlement(ctx context.Context, intentID string) (domain.Settlement, error)

	// RecordPayments creates the settlement row if missing and inserts the payments
	// that are not yet recorded for the intent, in one transaction. It returns
	// every payment recorded for the intent afterwards.
	RecordPayments(ctx context.Context, settlement domain.Settlement, payments []domain.Payment) ([]domain.Payment, error)

	// CompleteSettlement removes the purchased courses from the cart, marks the
	// settlement completed and enqueues the event in one transaction. Other
	// cart items stay. It reports false and changes nothing when another caller
	// completed it first.
	CompleteSettlement(ctx context.Context, intentID string, cartID uuid.UUID, courseIDs []int64, event domain.PurchaseEvent) (bool, error)

	ListPayments(ctx context.Context, intentID string) ([]domain.Payment, error)
}

type EnrollmentStore interface {
	// Create returns domain.ErrConflict when the (user, course) pair is already enrolled.
	Create(ctx context.Context, userID, courseID int64) (domain.Enrollment, error)
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
}

type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
}
