package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
)

type AddItemRequestDTO struct {
	CourseID int64 `json:"courseId"`
	Quantity int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	ID             string `json:"id"`
	CourseID       int64  `json:"courseId"`
	Title          string `json:"title,omitempty"`
	ThumbnailURL   string `json:"thumbnailUrl,omitempty"`
	InstructorName string `json:"instructorName,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      string `json:"unitPrice,omitempty"`
	LineTotal      string `json:"lineTotal,omitempty"`
}

type CartDTO struct {
	CartID   string        `json:"cartId"`
	Currency string        `json:"currency"`
	Total    string        `json:"total"`
	Items    []CartItemDTO `json:"items"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	priced, err := h.svc.GetCart(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapCartToDTO(priced))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.svc.AddToCart(r.Context(), userIDFromContext(r.Context()), req.CourseID, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CartItemDTO{
		ID:       item.ID.String(),
		CourseID: item.CourseID,
		Quantity: item.Quantity,
	})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.UpdateCartItem(r.Context(), userIDFromContext(r.Context()), itemID, req.Quantity); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveCartItem(r.Context(), userIDFromContext(r.Context()), itemID); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCart(r.Context(), userIDFromContext(r.Context())); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "itemId must be a UUID")
		return uuid.Nil, false
	}
	return itemID, true
}

func mapCartToDTO(priced domain.PricedCart) CartDTO {
	dto := CartDTO{
		CartID:   priced.Cart.ID.String(),
		Currency: priced.Currency.String(),
		Total:    priced.TotalPrice().AmountString(),
		Items:    make([]CartItemDTO, 0, len(priced.Items)),
	}

	for _, item := range priced.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ID:             item.ID.String(),
			CourseID:       item.CourseID,
			Title:          item.Course.Title,
			ThumbnailURL:   item.Course.ThumbnailURL,
			InstructorName: item.Course.InstructorName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice().AmountString(),
			LineTotal:      item.LineTotal().AmountString(),
		})
	}

	return dto
}
