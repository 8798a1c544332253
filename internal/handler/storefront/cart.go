package storefront

import (
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/service"
)

// CartHandler handles all cart routes
type CartHandler struct {
	cartService service.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// cartView is the cart as the UI renders it.
type cartView struct {
	domain.Cart
	Lines []service.LineView `json:"lines"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart domain.Cart, err error) {
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cartView{Cart: cart, Lines: h.cartService.Lines()})
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, cartView{Cart: h.cartService.Snapshot(), Lines: h.cartService.Lines()})
}

// Refresh handles POST /cart/refresh
func (h *CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.FetchCart(r.Context())
	h.respond(w, r, cart, err)
}

// Add handles POST /cart/items/{bookId}
// The quantity defaults to one.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "cart.add"
	bookID, err := pathID(r, "bookId", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.cartService.AddItem(r.Context(), bookID, quantity)
	h.respond(w, r, cart, err)
}

// Update handles PUT /cart/items/{bookId}
// A quantity of zero removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "cart.update"
	bookID, err := pathID(r, "bookId", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.Quantity == nil {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "quantity", "This field is required"))
		return
	}

	cart, err := h.cartService.UpdateItemQuantity(r.Context(), bookID, *req.Quantity)
	h.respond(w, r, cart, err)
}

// Increment handles POST /cart/items/{bookId}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookId", "cart.increment")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	cart, err := h.cartService.Increment(r.Context(), bookID)
	h.respond(w, r, cart, err)
}

// Decrement handles POST /cart/items/{bookId}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookId", "cart.decrement")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	cart, err := h.cartService.Decrement(r.Context(), bookID)
	h.respond(w, r, cart, err)
}

// Remove handles DELETE /cart/items/{bookId}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookId", "cart.remove")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	cart, err := h.cartService.RemoveItem(r.Context(), bookID)
	h.respond(w, r, cart, err)
}
