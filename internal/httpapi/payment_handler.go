package httpapi

import (
	"net/http"

	"github.com/nikolayk812/course-checkout/internal/checkout"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateIntentRequestDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	CourseIDs   []int64         `json:"courseIds"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	PostalCode  string          `json:"postalCode"`
}

type CreateIntentResponseDTO struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

type ConfirmRequestDTO struct {
	IntentID string `json:"intentId"`
}

type ConfirmResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type CheckoutSessionRequestDTO struct {
	ReturnURL string `json:"returnUrl"`
}

type CheckoutSessionResponseDTO struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreatePaymentIntent(r.Context(), userIDFromContext(r.Context()), checkout.IntentRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		CourseIDs:   req.CourseIDs,
		Contact: domain.ContactFields{
			Name:       req.Name,
			Phone:      req.Phone,
			PostalCode: req.PostalCode,
		},
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateIntentResponseDTO{
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
	})
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.ConfirmPayment(r.Context(), req.IntentID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapConfirmResult(result))
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CheckoutSessionRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateCheckoutSession(r.Context(), userIDFromContext(r.Context()),
		req.ReturnURL, r.Header.Get(headerIdempotencyKey))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutSessionResponseDTO{
		SessionID: result.SessionID,
		URL:       result.URL,
	})
}

func (h *Handler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}

	result, err := h.svc.ConfirmSession(r.Context(), sessionID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapConfirmResult(result))
}

func mapConfirmResult(result checkout.ConfirmResult) ConfirmResponseDTO {
	return ConfirmResponseDTO{
		Success: result.Success,
		Message: result.Message,
		Status:  result.Status.String(),
	}
}
