package catalog

import (
	"sort"

	"github.com/dukerupert/folio/internal/domain"
)

// Sort orders accepted by Sort.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortRating    = "rating"
)

// DefaultPageSize is the number of books on one catalog page.
const DefaultPageSize = 12

// ValidSort reports whether key is a known sort order. The empty key means
// relevance.
func ValidSort(key string) bool {
	switch key {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

// Sort returns a copy of books in the requested order. Relevance keeps
// server order. Ties keep their relative order.
func Sort(books []domain.Book, key string) []domain.Book {
	out := append([]domain.Book(nil), books...)
	switch key {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}
	return out
}

// Page returns the 1-based page of books and the page count. Pages past
// the end are empty.
func Page(books []domain.Book, page, size int) ([]domain.Book, int) {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	pages := (len(books) + size - 1) / size

	start := (page - 1) * size
	if start >= len(books) {
		return []domain.Book{}, pages
	}
	end := start + size
	if end > len(books) {
		end = len(books)
	}
	return books[start:end], pages
}
