package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
)

// Payment is one immutable ledger row: the share of one intent attributed to one course.
type Payment struct {
	ID         uuid.UUID
	UserID     int64
	CourseID   int64
	Amount     Money
	Method     PaymentMethod
	Status     PaymentStatus
	ExternalID string

	PaidAt time.Time
}

type SettlementStatus string

const (
	SettlementStatusRecording SettlementStatus = "recording"
	SettlementStatusCompleted SettlementStatus = "completed"
)

// Settlement tracks the local processing of one succeeded intent. IntentID is unique.
type Settlement struct {
	IntentID    string
	UserID      int64
	CartID      uuid.UUID
	AmountMinor int64
	Currency    string
	Status      SettlementStatus

	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (s Settlement) IsCompleted() bool {
	return s.Status == SettlementStatusCompleted
}

type Enrollment struct {
	ID       uuid.UUID
	UserID   int64
	CourseID int64

	EnrolledAt time.Time
}
