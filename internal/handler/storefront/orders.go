package storefront

import (
	"net/http"

	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/service"
)

// OrderHandler serves order history and the place/cancel actions.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Fetch(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"orders": orders})
}

// Place handles POST /orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	msg, err := h.orders.Place(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": msg})
}

// Cancel handles PATCH /orders
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	msg, err := h.orders.Cancel(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": msg})
}
