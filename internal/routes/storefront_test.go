package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/folio/internal/handler/storefront"
	"github.com/dukerupert/folio/internal/router"
	"github.com/stretchr/testify/assert"
)

type anonymous struct{}

func (anonymous) IsAuthenticated(context.Context) bool { return false }

func TestRegisterStorefrontRoutes_AccountRoutesRequireLogin(t *testing.T) {
	r := router.New()
	RegisterStorefrontRoutes(r, StorefrontDeps{
		BookHandler:     storefront.NewBookHandler(nil),
		CartHandler:     storefront.NewCartHandler(nil),
		AccountHandler:  storefront.NewAccountHandler(nil, nil),
		AddressHandler:  storefront.NewAddressHandler(nil),
		CheckoutHandler: storefront.NewCheckoutHandler(nil),
		OrderHandler:    storefront.NewOrderHandler(nil),
		Sessions:        anonymous{},
	})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/addresses"},
		{http.MethodPost, "/addresses"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/orders"},
		{http.MethodPost, "/orders"},
		{http.MethodPatch, "/orders"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRegisterOpsRoutes(t *testing.T) {
	r := router.New()
	RegisterOpsRoutes(r, OpsDeps{
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
		Health: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
