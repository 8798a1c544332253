package storefront

import (
	"context"
	"net/http"

	"github.com/dukerupert/folio/internal/catalog"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/handler"
	"github.com/dukerupert/folio/internal/middleware"
)

// Catalog is the catalog cache as seen by the book routes.
type Catalog interface {
	All() []domain.Book
	Filter(term string) []domain.Book
	Get(id int) (domain.Book, bool)
	FetchByID(ctx context.Context, id int) (domain.Book, error)
	Snapshot() catalog.Snapshot
}

// BookHandler serves the catalog.
type BookHandler struct {
	catalog Catalog
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalog Catalog) *BookHandler {
	return &BookHandler{catalog: catalog}
}

type bookPage struct {
	Items   []domain.Book `json:"items"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
	Total   int           `json:"total"`
	Sort    string        `json:"sort,omitempty"`
	Term    string        `json:"term,omitempty"`
	Loading bool          `json:"loading"`
	Err     string        `json:"error,omitempty"`
}

// List handles GET /books?sort=&page=
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, h.catalog.All(), "")
}

// Search handles GET /books/search?q=
// Matches name or author, case-insensitively. An empty term lists all books.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	h.page(w, r, h.catalog.Filter(term), term)
}

func (h *BookHandler) page(w http.ResponseWriter, r *http.Request, books []domain.Book, term string) {
	sortKey := r.URL.Query().Get("sort")
	if !catalog.ValidSort(sortKey) {
		handler.ErrorResponse(w, r, domain.NewValidationError("books.list", "sort", "Sort must be one of: relevance, price-asc, price-desc, rating"))
		return
	}

	sorted := catalog.Sort(books, sortKey)
	page := queryInt(r, "page", 1)
	items, pages := catalog.Page(sorted, page, queryInt(r, "size", catalog.DefaultPageSize))
	if page < 1 {
		page = 1
	}

	snap := h.catalog.Snapshot()
	writeJSON(w, r, http.StatusOK, bookPage{
		Items:   items,
		Page:    page,
		Pages:   pages,
		Total:   len(sorted),
		Sort:    sortKey,
		Term:    term,
		Loading: snap.Loading,
		Err:     snap.Err,
	})
}

// Get handles GET /books/{id}
// The record is refreshed from the server; if the server cannot be reached
// the cached record is served.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "books.get"
	id, err := pathID(r, "id", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	book, err := h.catalog.FetchByID(r.Context(), id)
	if err != nil {
		cached, ok := h.catalog.Get(id)
		if domain.IsCode(err, domain.ENOTFOUND) || !ok {
			handler.ErrorResponse(w, r, err)
			return
		}
		middleware.GetLogger(r.Context()).Warn("serving cached book", "book_id", id, "error", err)
		book = cached
	}

	writeJSON(w, r, http.StatusOK, book)
}
