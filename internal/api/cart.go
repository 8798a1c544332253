package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// GetCart fetches the authenticated user's open cart.
func (c *Client) GetCart(ctx context.Context, token string) (*domain.Envelope[domain.RemoteCart], error) {
	var out domain.Envelope[domain.RemoteCart]
	err := c.do(ctx, request{
		op:       "api.cart.get",
		endpoint: "cart_get",
		method:   http.MethodGet,
		path:     "/api/cart/",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetCartItem sets the absolute quantity of a book in the server cart,
// creating the line when absent. The same endpoint serves add and update.
func (c *Client) SetCartItem(ctx context.Context, token string, bookID, quantity int) (*domain.Envelope[domain.CartLine], error) {
	var out domain.Envelope[domain.CartLine]
	err := c.do(ctx, request{
		op:       "api.cart.set_item",
		endpoint: "cart_item_set",
		method:   http.MethodPost,
		path:     fmt.Sprintf("/api/cart/item/%d/", bookID),
		token:    token,
		body:     map[string]int{"quantity": quantity},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data.Book == 0 {
		out.Data.Book = bookID
	}
	if out.Data.Quantity == 0 {
		out.Data.Quantity = quantity
	}
	return &out, nil
}

// DeleteCartItem removes a book from the server cart.
func (c *Client) DeleteCartItem(ctx context.Context, token string, bookID int) error {
	return c.do(ctx, request{
		op:       "api.cart.delete_item",
		endpoint: "cart_item_delete",
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/api/cart/item/%d/", bookID),
		token:    token,
	}, nil)
}
