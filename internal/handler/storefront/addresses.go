package storefront

import (
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/service"
)

// AddressHandler serves the shopper's address book.
type AddressHandler struct {
	addresses service.AddressBook
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(addresses service.AddressBook) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// List handles GET /addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.addresses.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"addresses": list})
}

// Create handles POST /addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var addr domain.Address
	if err := decodeJSON(r, "addresses.add", &addr); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	saved, err := h.addresses.Add(r.Context(), addr)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, saved)
}
