package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/checkout"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/httpapi"
	"github.com/nikolayk812/course-checkout/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

const userID int64 = 7

type stubCheckout struct {
	intentReq    checkout.IntentRequest
	intentUserID int64
	requestID    string
	sessionKey   string
	updated      int
	cleared      bool

	err     error
	confirm checkout.ConfirmResult
	cart    domain.PricedCart
}

func (s *stubCheckout) CreatePaymentIntent(ctx context.Context, userID int64, req checkout.IntentRequest) (checkout.IntentResult, error) {
	s.intentUserID = userID
	s.intentReq = req
	s.requestID = checkout.RequestID(ctx)
	if s.err != nil {
		return checkout.IntentResult{}, s.err
	}
	return checkout.IntentResult{IntentID: "pi_123", ClientSecret: "pi_123_secret"}, nil
}

func (s *stubCheckout) ConfirmPayment(_ context.Context, intentID string) (checkout.ConfirmResult, error) {
	if s.err != nil {
		return checkout.ConfirmResult{}, s.err
	}
	return s.confirm, nil
}

func (s *stubCheckout) CreateCheckoutSession(_ context.Context, _ int64, _ string, idempotencyKey string) (checkout.SessionResult, error) {
	s.sessionKey = idempotencyKey
	if s.err != nil {
		return checkout.SessionResult{}, s.err
	}
	return checkout.SessionResult{SessionID: "cs_123", URL: "https://checkout.example.com/cs_123"}, nil
}

func (s *stubCheckout) ConfirmSession(_ context.Context, _ string) (checkout.ConfirmResult, error) {
	if s.err != nil {
		return checkout.ConfirmResult{}, s.err
	}
	return s.confirm, nil
}

func (s *stubCheckout) GetCart(_ context.Context, _ int64) (domain.PricedCart, error) {
	return s.cart, s.err
}

func (s *stubCheckout) AddToCart(_ context.Context, _ int64, courseID int64, quantity int) (domain.CartItem, error) {
	if s.err != nil {
		return domain.CartItem{}, s.err
	}
	return domain.CartItem{ID: uuid.New(), CourseID: courseID, Quantity: quantity}, nil
}

func (s *stubCheckout) UpdateCartItem(_ context.Context, _ int64, _ uuid.UUID, quantity int) error {
	s.updated = quantity
	return s.err
}

func (s *stubCheckout) RemoveCartItem(_ context.Context, _ int64, _ uuid.UUID) error {
	return s.err
}

func (s *stubCheckout) ClearCart(_ context.Context, _ int64) error {
	s.cleared = true
	return s.err
}

func newRouter(svc httpapi.Checkout) (http.Handler, *metrics.ServerMetrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg, "api")
	return httpapi.NewRouter(svc, httpapi.Config{}, nil, m, reg), m, reg
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprint(userID))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	h, m, _ := newRouter(&stubCheckout{})

	rec := do(t, h, http.MethodGet, "/health", nil, map[string]string{"X-User-ID": ""})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Requests.WithLabelValues("GET /health", "200")), 0)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _, _ := newRouter(&stubCheckout{})

	do(t, h, http.MethodGet, "/health", nil, nil)
	rec := do(t, h, http.MethodGet, "/metrics", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "checkout_api_http_requests_total")
}

func TestMissingUser(t *testing.T) {
	tests := []struct {
		name   string
		userID string
	}{
		{name: "absent", userID: ""},
		{name: "not a number", userID: "abc"},
		{name: "not positive", userID: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubCheckout{}
			h, _, _ := newRouter(svc)

			rec := do(t, h, http.MethodGet, "/cart", nil, map[string]string{"X-User-ID": tt.userID})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			resp := decode[httpapi.ErrorResponse](t, rec)
			assert.Equal(t, "unauthorized", resp.Code)
		})
	}
}

func TestCreateIntent(t *testing.T) {
	svc := &stubCheckout{}
	h, _, _ := newRouter(svc)

	body := `{"amount": 49.99, "currency": "usd", "description": "Go course", "courseIds": [5],
		"name": "Ada", "phone": "+1 555", "postalCode": "94105"}`
	rec := do(t, h, http.MethodPost, "/payment/intent", body, map[string]string{
		"Idempotency-Key": "key-1",
		"X-Request-ID":    "req-42",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	resp := decode[httpapi.CreateIntentResponseDTO](t, rec)
	assert.Equal(t, "pi_123", resp.IntentID)
	assert.Equal(t, "pi_123_secret", resp.ClientSecret)

	assert.Equal(t, userID, svc.intentUserID)
	assert.Equal(t, "req-42", svc.requestID)
	assert.True(t, decimal.RequireFromString("49.99").Equal(svc.intentReq.Amount))
	assert.Equal(t, "usd", svc.intentReq.Currency)
	assert.Equal(t, []int64{5}, svc.intentReq.CourseIDs)
	assert.Equal(t, "key-1", svc.intentReq.IdempotencyKey)
	assert.Equal(t, domain.ContactFields{Name: "Ada", Phone: "+1 555", PostalCode: "94105"}, svc.intentReq.Contact)
}

func TestInvalidJSON(t *testing.T) {
	h, _, _ := newRouter(&stubCheckout{})

	rec := do(t, h, http.MethodPost, "/payment/intent", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[httpapi.ErrorResponse](t, rec)
	assert.Equal(t, "invalid_request", resp.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("%w: cart is empty", domain.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantMsg:    "validation failed: cart is empty",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("%w: intent[pi_x]", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
			wantMsg:    "not found: intent[pi_x]",
		},
		{
			name:       "gateway",
			err:        fmt.Errorf("%w: create intent: sk_live_secret", domain.ErrGateway),
			wantStatus: http.StatusBadGateway,
			wantCode:   "gateway_error",
			wantMsg:    "payment provider is unavailable, please retry",
		},
		{
			name:       "internal",
			err:        fmt.Errorf("%w: metadata", domain.ErrInternal),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "internal error",
		},
		{
			name:       "unknown",
			err:        errors.New("pool closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newRouter(&stubCheckout{err: tt.err})

			rec := do(t, h, http.MethodPost, "/payment/confirm", httpapi.ConfirmRequestDTO{IntentID: "pi_x"}, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decode[httpapi.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestConfirmPayment(t *testing.T) {
	svc := &stubCheckout{confirm: checkout.ConfirmResult{
		Success: true,
		Status:  domain.IntentStatusSucceeded,
		Message: "payment succeeded",
	}}
	h, _, _ := newRouter(svc)

	rec := do(t, h, http.MethodPost, "/payment/confirm", httpapi.ConfirmRequestDTO{IntentID: "pi_1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httpapi.ConfirmResponseDTO](t, rec)
	assert.Equal(t, httpapi.ConfirmResponseDTO{Success: true, Message: "payment succeeded", Status: "succeeded"}, resp)
}

func TestCheckoutSession(t *testing.T) {
	svc := &stubCheckout{}
	h, _, _ := newRouter(svc)

	rec := do(t, h, http.MethodPost, "/payment/checkout-session",
		httpapi.CheckoutSessionRequestDTO{ReturnURL: "https://shop.example.com/done"},
		map[string]string{"Idempotency-Key": "key-2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode[httpapi.CheckoutSessionResponseDTO](t, rec)
	assert.Equal(t, "cs_123", resp.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_123", resp.URL)
	assert.Equal(t, "key-2", svc.sessionKey)
}

func TestCheckoutSuccess(t *testing.T) {
	svc := &stubCheckout{confirm: checkout.ConfirmResult{Status: domain.IntentStatusPending, Message: "payment is processing"}}
	h, _, _ := newRouter(svc)

	rec := do(t, h, http.MethodGet, "/payment/success", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/payment/success?session_id=cs_123", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httpapi.ConfirmResponseDTO](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "pending", resp.Status)
}

func TestGetCart(t *testing.T) {
	price := domain.Money{Amount: decimal.RequireFromString("49.99"), Currency: currency.USD}
	cartID := uuid.New()
	itemID := uuid.New()

	svc := &stubCheckout{cart: domain.PricedCart{
		Cart:     domain.Cart{ID: cartID, UserID: userID},
		Currency: currency.USD,
		Items: []domain.PricedItem{{
			CartItem: domain.CartItem{ID: itemID, CartID: cartID, CourseID: 5, Quantity: 2},
			Course:   domain.Course{ID: 5, Title: "Go", Price: price, InstructorName: "Ada Lovelace"},
		}},
	}}
	h, _, _ := newRouter(svc)

	rec := do(t, h, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[httpapi.CartDTO](t, rec)
	assert.Equal(t, httpapi.CartDTO{
		CartID:   cartID.String(),
		Currency: "USD",
		Total:    "99.98",
		Items: []httpapi.CartItemDTO{{
			ID:             itemID.String(),
			CourseID:       5,
			Title:          "Go",
			InstructorName: "Ada Lovelace",
			Quantity:       2,
			UnitPrice:      "49.99",
			LineTotal:      "99.98",
		}},
	}, resp)
}

func TestCartMutations(t *testing.T) {
	itemPath := "/cart/items/" + uuid.NewString()

	tests := []struct {
		name       string
		method     string
		target     string
		body       any
		wantStatus int
	}{
		{name: "add item: ok", method: http.MethodPost, target: "/cart/items", body: httpapi.AddItemRequestDTO{CourseID: 5, Quantity: 1}, wantStatus: http.StatusCreated},
		{name: "update item: ok", method: http.MethodPatch, target: itemPath, body: httpapi.UpdateQuantityRequestDTO{Quantity: 3}, wantStatus: http.StatusNoContent},
		{name: "update item: bad id", method: http.MethodPatch, target: "/cart/items/42", body: httpapi.UpdateQuantityRequestDTO{Quantity: 3}, wantStatus: http.StatusBadRequest},
		{name: "remove item: ok", method: http.MethodDelete, target: itemPath, wantStatus: http.StatusNoContent},
		{name: "remove item: bad id", method: http.MethodDelete, target: "/cart/items/x", wantStatus: http.StatusBadRequest},
		{name: "clear cart: ok", method: http.MethodDelete, target: "/cart", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newRouter(&stubCheckout{})

			rec := do(t, h, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestUpdateItemPassesQuantity(t *testing.T) {
	svc := &stubCheckout{}
	h, _, _ := newRouter(svc)

	rec := do(t, h, http.MethodPatch, "/cart/items/"+uuid.NewString(), httpapi.UpdateQuantityRequestDTO{Quantity: 4}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 4, svc.updated)
}

func TestRemoveItemNotFound(t *testing.T) {
	h, _, _ := newRouter(&stubCheckout{err: fmt.Errorf("%w: cart item", domain.ErrNotFound)})

	rec := do(t, h, http.MethodDelete, "/cart/items/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
