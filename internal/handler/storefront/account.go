package storefront

import (
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/service"
)

// AccountHandler handles login, registration, logout and the session view.
type AccountHandler struct {
	accounts    service.AccountService
	cartService service.CartService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts service.AccountService, cartService service.CartService) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		cartService: cartService,
	}
}

type sessionView struct {
	domain.Session
	Cart domain.Cart `json:"cart"`
}

func (h *AccountHandler) session() sessionView {
	return sessionView{Session: h.accounts.Session(), Cart: h.cartService.Snapshot()}
}

// Session handles GET /session
func (h *AccountHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.session())
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(r, "account.login", &creds); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if _, err := h.accounts.Login(r.Context(), creds); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.session())
}

// Register handles POST /register
// The new account must verify its email before logging in.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(r, "account.register", &reg); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, domain.Success("Registration successful. Please verify your email before logging in.", user))
}

// Logout handles POST /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.session())
}
