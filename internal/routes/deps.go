package routes

import (
	"net/http"

	"github.com/dukerupert/folio/internal/handler/storefront"
	"github.com/dukerupert/folio/internal/middleware"
	"github.com/dukerupert/folio/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog
	BookHandler *storefront.BookHandler

	// Cart (works logged in or not)
	CartHandler *storefront.CartHandler

	// Auth (login, register, logout, session)
	AccountHandler *storefront.AccountHandler

	// Account (require a logged-in shopper)
	AddressHandler  *storefront.AddressHandler
	CheckoutHandler *storefront.CheckoutHandler
	OrderHandler    *storefront.OrderHandler

	// Sessions gates the account routes.
	Sessions middleware.SessionChecker

	// AuthLimit throttles login and registration. Optional.
	AuthLimit router.Middleware
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	Metrics http.Handler
	Health  http.HandlerFunc
}
