package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/db"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"golang.org/x/text/currency"
)

type ledgerRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) port.PaymentLedger {
	return &ledgerRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func (r *ledgerRepository) GetSettlement(ctx context.Context, intentID string) (domain.Settlement, error) {
	if intentID == "" {
		return domain.Settlement{}, fmt.Errorf("intentID is empty")
	}

	row, err := r.q.GetSettlement(ctx, intentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Settlement{}, fmt.Errorf("%w: settlement[%s]", domain.ErrNotFound, intentID)
		}
		return domain.Settlement{}, fmt.Errorf("q.GetSettlement: %w", err)
	}

	return mapSettlementToDomain(row), nil
}

// RecordPayments is safe to repeat: the settlement row and each (intent, course)
// payment are inserted at most once, existing rows are left untouched.
func (r *ledgerRepository) RecordPayments(ctx context.Context, settlement domain.Settlement, payments []domain.Payment) ([]domain.Payment, error) {
	if settlement.IntentID == "" {
		return nil, fmt.Errorf("settlement.IntentID is empty")
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("payments are empty")
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) ([]domain.Payment, error) {
		if _, err := q.CreateSettlement(ctx, db.CreateSettlementParams{
			IntentID:    settlement.IntentID,
			UserID:      settlement.UserID,
			CartID:      settlement.CartID,
			AmountMinor: settlement.AmountMinor,
			Currency:    settlement.Currency,
			Status:      string(domain.SettlementStatusRecording),
		}); err != nil {
			return nil, fmt.Errorf("q.CreateSettlement: %w", err)
		}

		for _, p := range payments {
			if p.ExternalID != settlement.IntentID {
				return nil, fmt.Errorf("payment externalID[%s] does not match intent[%s]", p.ExternalID, settlement.IntentID)
			}

			id := p.ID
			if id == uuid.Nil {
				id = uuid.New()
			}

			if _, err := q.InsertPayment(ctx, db.InsertPaymentParams{
				ID:         id,
				UserID:     p.UserID,
				CourseID:   p.CourseID,
				Amount:     p.Amount.Amount,
				Currency:   p.Amount.Currency.String(),
				Method:     string(p.Method),
				Status:     string(p.Status),
				PaidAt:     p.PaidAt,
				ExternalID: p.ExternalID,
			}); err != nil {
				return nil, fmt.Errorf("q.InsertPayment: %w", err)
			}
		}

		rows, err := q.ListPaymentsByExternalID(ctx, settlement.IntentID)
		if err != nil {
			return nil, fmt.Errorf("q.ListPaymentsByExternalID: %w", err)
		}

		return mapPaymentsToDomain(rows)
	})
}

func (r *ledgerRepository) CompleteSettlement(ctx context.Context, intentID string, cartID uuid.UUID, courseIDs []int64, event domain.PurchaseEvent) (bool, error) {
	if intentID == "" {
		return false, fmt.Errorf("intentID is empty")
	}
	if len(courseIDs) == 0 {
		return false, fmt.Errorf("courseIDs are empty")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("json.Marshal: %w", err)
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (bool, error) {
		rowsAffected, err := q.CompleteSettlement(ctx, intentID)
		if err != nil {
			return false, fmt.Errorf("q.CompleteSettlement: %w", err)
		}

		if rowsAffected == 0 {
			return false, nil
		}

		if err := cartInTx(q).RemoveCourses(ctx, cartID, courseIDs); err != nil {
			return false, fmt.Errorf("cart.RemoveCourses: %w", err)
		}

		if err := q.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
			EventID: event.EventID,
			Topic:   domain.TopicCoursePurchased,
			Key:     strconv.FormatInt(event.UserID, 10),
			Payload: payload,
		}); err != nil {
			return false, fmt.Errorf("q.InsertOutboxEvent: %w", err)
		}

		return true, nil
	})
}

func (r *ledgerRepository) ListPayments(ctx context.Context, intentID string) ([]domain.Payment, error) {
	rows, err := r.q.ListPaymentsByExternalID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("q.ListPaymentsByExternalID: %w", err)
	}

	return mapPaymentsToDomain(rows)
}

func mapSettlementToDomain(row db.Settlement) domain.Settlement {
	return domain.Settlement{
		IntentID:    row.IntentID,
		UserID:      row.UserID,
		CartID:      row.CartID,
		AmountMinor: row.AmountMinor,
		Currency:    row.Currency,
		Status:      domain.SettlementStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
	}
}

func mapPaymentsToDomain(rows []db.Payment) ([]domain.Payment, error) {
	var payments []domain.Payment

	for _, row := range rows {
		cur, err := currency.ParseISO(row.Currency)
		if err != nil {
			return nil, fmt.Errorf("currency.ParseISO[%s]: %w", row.Currency, err)
		}

		payments = append(payments, domain.Payment{
			ID:       row.ID,
			UserID:   row.UserID,
			CourseID: row.CourseID,
			Amount: domain.Money{
				Amount:   row.Amount,
				Currency: cur,
			},
			Method:     domain.PaymentMethod(row.Method),
			Status:     domain.PaymentStatus(row.Status),
			ExternalID: row.ExternalID,
			PaidAt:     row.PaidAt,
		})
	}

	return payments, nil
}
