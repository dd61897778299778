package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const TopicCoursePurchased = "course.purchased"

// PurchaseEvent is published once per completed settlement.
type PurchaseEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	IntentID  string    `json:"intent_id"`
	UserID    int64     `json:"user_id"`
	CourseIDs []int64   `json:"course_ids"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	SettledAt time.Time `json:"settled_at"`
}

type OutboxEvent struct {
	ID      int64
	EventID uuid.UUID
	Topic   string
	Key     string
	Payload json.RawMessage

	CreatedAt time.Time
	SentAt    *time.Time
}
