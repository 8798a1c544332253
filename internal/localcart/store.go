// Package localcart persists the anonymous shopper's cart on this device.
//
// The cart lives under a single key as a JSON array of {book, quantity}
// pairs. Reads never fail on bad data: a missing or malformed value is an
// empty cart.
package localcart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/storage"
)

// Key is the storage key holding the cart.
const Key = "cart"

// entry is the persisted shape; unit prices are never stored locally.
type entry struct {
	Book     int `json:"book"`
	Quantity int `json:"quantity"`
}

// Store is the local cart store. It is written only by this process.
type Store struct {
	storage storage.Storage
	logger  *slog.Logger

	// mu serializes read-modify-write cycles.
	mu sync.Mutex
}

// NewStore creates a local cart store over durable storage.
func NewStore(s storage.Storage, logger *slog.Logger) *Store {
	return &Store{
		storage: s,
		logger:  logger.With(slog.String("component", "localcart")),
	}
}

// Read returns the stored lines in insertion order. Missing, unreadable or
// malformed data yields an empty slice.
func (s *Store) Read(ctx context.Context) []domain.CartLine {
	s.mu.Lock()
	entries := s.load(ctx)
	s.mu.Unlock()

	lines := make([]domain.CartLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, domain.CartLine{Book: e.Book, Quantity: e.Quantity})
	}
	return lines
}

// Upsert replaces the quantity of the line for bookID, or appends a new
// line, and persists the whole sequence.
func (s *Store) Upsert(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error) {
	if bookID <= 0 {
		return domain.Envelope[domain.CartLine]{}, domain.ErrInvalidBookID
	}
	if quantity < 1 {
		return domain.Envelope[domain.CartLine]{}, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	found := false
	for i := range entries {
		if entries[i].Book == bookID {
			entries[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, entry{Book: bookID, Quantity: quantity})
	}

	if err := s.save(ctx, entries); err != nil {
		return domain.Envelope[domain.CartLine]{}, domain.Internal(err, "localcart.upsert", "failed to save cart")
	}

	return domain.Success("Item saved to local cart.", domain.CartLine{Book: bookID, Quantity: quantity}), nil
}

// Remove deletes the line for bookID if present and persists the result.
func (s *Store) Remove(ctx context.Context, bookID int) (domain.Envelope[int], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	kept := entries[:0]
	for _, e := range entries {
		if e.Book != bookID {
			kept = append(kept, e)
		}
	}

	if err := s.save(ctx, kept); err != nil {
		return domain.Envelope[int]{}, domain.Internal(err, "localcart.remove", "failed to save cart")
	}

	return domain.Success("Item removed from local cart.", bookID), nil
}

// Clear empties the store.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, []entry{}); err != nil {
		return domain.Internal(err, "localcart.clear", "failed to clear cart")
	}
	return nil
}

func (s *Store) load(ctx context.Context) []entry {
	rc, err := s.storage.Get(ctx, Key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("failed to read local cart, treating as empty", "error", err)
		}
		return []entry{}
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		s.logger.Warn("failed to read local cart, treating as empty", "error", err)
		return []entry{}
	}

	var entries []entry
	if err := json.Unmarshal(b, &entries); err != nil {
		s.logger.Warn("malformed local cart, treating as empty", "error", err)
		return []entry{}
	}

	// Collapse duplicates and drop invalid lines left by older writers.
	out := make([]entry, 0, len(entries))
	index := make(map[int]int, len(entries))
	for _, e := range entries {
		if e.Book <= 0 || e.Quantity < 1 {
			continue
		}
		if i, ok := index[e.Book]; ok {
			out[i].Quantity += e.Quantity
			continue
		}
		index[e.Book] = len(out)
		out = append(out, e)
	}
	return out
}

func (s *Store) save(ctx context.Context, entries []entry) error {
	if entries == nil {
		entries = []entry{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return s.storage.Put(ctx, Key, bytes.NewReader(b), "application/json")
}
