package routes

import (
	"github.com/dukerupert/folio/internal/middleware"
	"github.com/dukerupert/folio/internal/router"
)

// RegisterStorefrontRoutes registers the shopper-facing JSON routes.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalog
	r.Get("/books", deps.BookHandler.List)
	r.Get("/books/search", deps.BookHandler.Search)
	r.Get("/books/{id}", deps.BookHandler.Get)

	// Cart
	r.Get("/cart", deps.CartHandler.View)
	r.Post("/cart/refresh", deps.CartHandler.Refresh)
	r.Post("/cart/items/{bookId}", deps.CartHandler.Add)
	r.Put("/cart/items/{bookId}", deps.CartHandler.Update)
	r.Delete("/cart/items/{bookId}", deps.CartHandler.Remove)
	r.Post("/cart/items/{bookId}/increment", deps.CartHandler.Increment)
	r.Post("/cart/items/{bookId}/decrement", deps.CartHandler.Decrement)

	// Authentication
	auth := r
	if deps.AuthLimit != nil {
		auth = r.Group(deps.AuthLimit)
	}
	auth.Post("/login", deps.AccountHandler.Login)
	auth.Post("/register", deps.AccountHandler.Register)
	r.Post("/logout", deps.AccountHandler.Logout)
	r.Get("/session", deps.AccountHandler.Session)

	// Account routes (require authentication)
	account := r.Group(middleware.RequireAuth(deps.Sessions))
	account.Get("/addresses", deps.AddressHandler.List)
	account.Post("/addresses", deps.AddressHandler.Create)
	account.Post("/checkout", deps.CheckoutHandler.Checkout)
	account.Get("/orders", deps.OrderHandler.List)
	account.Post("/orders", deps.OrderHandler.Place)
	account.Patch("/orders", deps.OrderHandler.Cancel)
}

// RegisterOpsRoutes registers the metrics and health endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Mount("/metrics", deps.Metrics)
	r.Get("/health", deps.Health)
}
