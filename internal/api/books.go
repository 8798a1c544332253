package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// ListBooks fetches the full catalog.
func (c *Client) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var out domain.Envelope[[]domain.Book]
	err := c.do(ctx, request{
		op:       "api.book.list",
		endpoint: "book_list",
		method:   http.MethodGet,
		path:     "/api/book/",
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []domain.Book{}, nil
	}
	return out.Data, nil
}

// GetBook fetches one catalog record. The endpoint returns a bare book,
// not an envelope.
func (c *Client) GetBook(ctx context.Context, id int) (*domain.Book, error) {
	var out domain.Book
	err := c.do(ctx, request{
		op:       "api.book.get",
		endpoint: "book_get",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/api/book/%d/", id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
