package storefront

import (
	"net/http"

	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/service"
)

// CheckoutHandler runs the simulated checkout.
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Checkout handles POST /checkout
// Body: {"addressIndex": 0} or {"address": {...}}. Responds with the
// confirmation and the route to navigate to.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutRequest
	if err := decodeJSON(r, "checkout", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	conf, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, conf)
}
