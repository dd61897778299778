package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "created"
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusCanceled  IntentStatus = "canceled"
)

func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusFailed || s == IntentStatusCanceled
}

func (s IntentStatus) String() string {
	return string(s)
}

// PaymentIntent mirrors the gateway-side charge attempt. It is never stored locally.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountMinor  int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	ClientSecret    string
	Metadata        map[string]string
}

type LineItem struct {
	Title           string
	Description     string
	ImageURL        string
	UnitAmountMinor int64
	Quantity        int64
}

const (
	MetadataUserID    = "userId"
	MetadataCourseIDs = "courseIds"
	MetadataCartID    = "cartId"
)

// IntentMetadata is what a checkout attempt carries through the gateway so that
// settlement can run from the intent alone.
type IntentMetadata struct {
	UserID    int64
	CourseIDs []int64
	CartID    uuid.UUID
}

func (m IntentMetadata) ToMap() map[string]string {
	ids := make([]string, 0, len(m.CourseIDs))
	for _, id := range m.CourseIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	return map[string]string{
		MetadataUserID:    strconv.FormatInt(m.UserID, 10),
		MetadataCourseIDs: strings.Join(ids, ","),
		MetadataCartID:    m.CartID.String(),
	}
}

func ParseIntentMetadata(md map[string]string) (IntentMetadata, error) {
	userID, err := strconv.ParseInt(md[MetadataUserID], 10, 64)
	if err != nil || userID <= 0 {
		return IntentMetadata{}, fmt.Errorf("metadata %s[%s] is not valid", MetadataUserID, md[MetadataUserID])
	}

	cartID, err := uuid.Parse(md[MetadataCartID])
	if err != nil {
		return IntentMetadata{}, fmt.Errorf("metadata %s[%s] is not valid: %w", MetadataCartID, md[MetadataCartID], err)
	}

	var courseIDs []int64
	for _, raw := range strings.Split(md[MetadataCourseIDs], ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		courseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || courseID <= 0 {
			return IntentMetadata{}, fmt.Errorf("metadata %s[%s] is not valid", MetadataCourseIDs, md[MetadataCourseIDs])
		}

		if !slices.Contains(courseIDs, courseID) {
			courseIDs = append(courseIDs, courseID)
		}
	}

	if len(courseIDs) == 0 {
		return IntentMetadata{}, fmt.Errorf("metadata %s is empty", MetadataCourseIDs)
	}

	return IntentMetadata{
		UserID:    userID,
		CourseIDs: courseIDs,
		CartID:    cartID,
	}, nil
}
