package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// ListOrders fetches the user's ordered carts. The server answers 404
// when there are none.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out domain.Envelope[[]domain.Order]
	err := c.do(ctx, request{
		op:       "api.order.list",
		endpoint: "order_list",
		method:   http.MethodGet,
		path:     "/api/order/",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PlaceOrder marks the open cart as ordered.
func (c *Client) PlaceOrder(ctx context.Context, token string) (*domain.Envelope[json.RawMessage], error) {
	var out domain.Envelope[json.RawMessage]
	err := c.do(ctx, request{
		op:       "api.order.place",
		endpoint: "order_place",
		method:   http.MethodPost,
		path:     "/api/order/",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder returns the ordered cart to an open one.
func (c *Client) CancelOrder(ctx context.Context, token string) (*domain.Envelope[json.RawMessage], error) {
	var out domain.Envelope[json.RawMessage]
	err := c.do(ctx, request{
		op:       "api.order.cancel",
		endpoint: "order_cancel",
		method:   http.MethodPatch,
		path:     "/api/order/",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
