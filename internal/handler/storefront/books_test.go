package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooks() []domain.Book {
	return []domain.Book{
		{ID: 1, Name: "Dune", Author: "Frank Herbert", Price: decimal.NewFromInt(30), Rating: 4},
		{ID: 2, Name: "Emma", Author: "Jane Austen", Price: decimal.NewFromInt(10), Rating: 5},
		{ID: 3, Name: "Ubik", Author: "Philip K. Dick", Price: decimal.NewFromInt(20), Rating: 3},
	}
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) bookPage {
	t.Helper()
	var page bookPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	return page
}

func TestBookHandler_List(t *testing.T) {
	h := NewBookHandler(&mockCatalog{books: testBooks()})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []int
		wantPages  int
	}{
		{name: "server order", query: "", wantStatus: http.StatusOK, wantIDs: []int{1, 2, 3}, wantPages: 1},
		{name: "price ascending", query: "?sort=price-asc", wantStatus: http.StatusOK, wantIDs: []int{2, 3, 1}, wantPages: 1},
		{name: "rating", query: "?sort=rating", wantStatus: http.StatusOK, wantIDs: []int{2, 1, 3}, wantPages: 1},
		{name: "second page", query: "?size=2&page=2", wantStatus: http.StatusOK, wantIDs: []int{3}, wantPages: 2},
		{name: "unknown sort", query: "?sort=newest", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/books"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			page := decodePage(t, rec)
			ids := make([]int, 0, len(page.Items))
			for _, b := range page.Items {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPages, page.Pages)
			assert.Equal(t, 3, page.Total)
		})
	}
}

func TestBookHandler_Search(t *testing.T) {
	h := NewBookHandler(&mockCatalog{books: testBooks()})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/books/search?q=Jane+Austen", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodePage(t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].ID)
	assert.Equal(t, "Jane Austen", page.Term)
}

func TestBookHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		fetch      func(ctx context.Context, id int) (domain.Book, error)
		wantStatus int
	}{
		{name: "found", id: "1", wantStatus: http.StatusOK},
		{name: "missing", id: "42", wantStatus: http.StatusNotFound},
		{name: "bad id", id: "abc", wantStatus: http.StatusBadRequest},
		{
			name: "unreachable serves cache",
			id:   "2",
			fetch: func(context.Context, int) (domain.Book, error) {
				return domain.Book{}, domain.Unavailable(nil, "api.books.get", "Bookstore is unreachable")
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unreachable without cache",
			id:   "9",
			fetch: func(context.Context, int) (domain.Book, error) {
				return domain.Book{}, domain.Unavailable(nil, "api.books.get", "Bookstore is unreachable")
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBookHandler(&mockCatalog{books: testBooks(), fetchByIDFunc: tt.fetch})

			req := httptest.NewRequest(http.MethodGet, "/books/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()
			h.Get(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
