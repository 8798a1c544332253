// Package catalog caches the bookstore's book list for the session.
package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/shopspring/decimal"
)

// Source is the subset of the API client the cache reads from.
type Source interface {
	ListBooks(ctx context.Context) ([]domain.Book, error)
	GetBook(ctx context.Context, id int) (*domain.Book, error)
}

// Snapshot is the observable catalog state.
type Snapshot struct {
	Items     []domain.Book `json:"items"`
	Filtered  []domain.Book `json:"filtered"`
	Searching bool          `json:"searching"`
	Term      string        `json:"term,omitempty"`
	Loading   bool          `json:"loading"`
	Err       string        `json:"error,omitempty"`
}

// Cache holds catalog records keyed by book id, in server order.
type Cache struct {
	source Source
	logger *slog.Logger

	mu          sync.RWMutex
	items       []domain.Book
	index       map[int]int
	initialized bool
	loading     bool
	term        string
	errMsg      string
}

// NewCache creates an empty cache.
func NewCache(source Source, logger *slog.Logger) *Cache {
	return &Cache{
		source: source,
		logger: logger.With(slog.String("component", "catalog")),
		index:  make(map[int]int),
	}
}

// Initialize loads the full catalog once. Later calls are no-ops; use
// Refresh to reload.
func (c *Cache) Initialize(ctx context.Context) error {
	c.mu.RLock()
	done := c.initialized
	c.mu.RUnlock()
	if done {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads the full catalog, replacing the cache. On failure the
// previous records are kept and the error is recorded.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	books, err := c.source.ListBooks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = domain.ErrorMessage(err)
		c.logger.Warn("failed to load catalog", "error", err)
		return err
	}

	c.items = c.items[:0]
	c.index = make(map[int]int, len(books))
	for _, b := range books {
		c.putLocked(b)
	}
	c.initialized = true
	c.errMsg = ""
	c.logger.Debug("catalog loaded", "count", len(c.items))
	return nil
}

// FetchByID loads one record and replaces the cached copy, appending it
// when absent.
func (c *Cache) FetchByID(ctx context.Context, id int) (domain.Book, error) {
	book, err := c.source.GetBook(ctx, id)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return domain.Book{}, domain.NotFound("catalog.fetch", "book", strconv.Itoa(id))
		}
		return domain.Book{}, err
	}

	c.mu.Lock()
	c.putLocked(*book)
	c.mu.Unlock()
	return *book, nil
}

// Get returns the cached record for id.
func (c *Cache) Get(id int) (domain.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return domain.Book{}, false
	}
	return c.items[i], true
}

// PriceOf returns the cached unit price for id.
func (c *Cache) PriceOf(id int) (decimal.Decimal, bool) {
	b, ok := c.Get(id)
	if !ok {
		return decimal.Zero, false
	}
	return b.Price, true
}

// All returns every cached record in cache order.
func (c *Cache) All() []domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Book(nil), c.items...)
}

// SelectByIDs returns the cached records whose ids are in ids, in cache
// order. Unknown ids are skipped.
func (c *Cache) SelectByIDs(ids []int) []domain.Book {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Book, 0, len(want))
	for _, b := range c.items {
		if _, ok := want[b.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Filter sets the search term and returns the matching records. Matching is
// a case-insensitive substring test on name or author. An empty term clears
// the search.
func (c *Cache) Filter(term string) []domain.Book {
	term = strings.TrimSpace(term)
	if term == "" {
		c.ClearSearch()
		return c.All()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.term = term
	return c.filteredLocked()
}

// ClearSearch drops the search term.
func (c *Cache) ClearSearch() {
	c.mu.Lock()
	c.term = ""
	c.mu.Unlock()
}

// Snapshot returns the observable state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Items:     append([]domain.Book{}, c.items...),
		Searching: c.term != "",
		Term:      c.term,
		Loading:   c.loading,
		Err:       c.errMsg,
	}
	if s.Searching {
		s.Filtered = c.filteredLocked()
	} else {
		s.Filtered = []domain.Book{}
	}
	return s
}

func (c *Cache) filteredLocked() []domain.Book {
	needle := strings.ToLower(c.term)
	out := []domain.Book{}
	for _, b := range c.items {
		if strings.Contains(strings.ToLower(b.Name), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) {
			out = append(out, b)
		}
	}
	return out
}

func (c *Cache) putLocked(b domain.Book) {
	if i, ok := c.index[b.ID]; ok {
		c.items[i] = b
		return
	}
	c.index[b.ID] = len(c.items)
	c.items = append(c.items, b)
}
