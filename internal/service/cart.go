package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService owns the canonical cart: its lines, the running totals and
// the load status. Every change goes through a backend first; canonical
// state changes only after the backend confirms.
type CartService interface {
	FetchCart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, bookID, quantity int) (domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, bookID, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, bookID int) (domain.Cart, error)
	Increment(ctx context.Context, bookID int) (domain.Cart, error)
	Decrement(ctx context.Context, bookID int) (domain.Cart, error)
	MergeLocalCart(ctx context.Context) (int, error)
	Snapshot() domain.Cart
	Lines() []LineView
	Subscribe() (<-chan domain.Cart, func())
}

// SessionState is the view of the session the cart needs to pick a
// backend and detect session changes.
type SessionState interface {
	IsAuthenticated(ctx context.Context) bool
	Epoch() uint64
}

// PriceSource resolves catalog records for pricing and display.
type PriceSource interface {
	Get(id int) (domain.Book, bool)
}

// CartRecorder receives cart metrics.
type CartRecorder interface {
	RecordMutation(op, backend string, err error)
	RecordFallback()
	RecordMerge(lines int, err error)
	SetCartTotals(quantity int, price float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, string, error) {}
func (nopRecorder) RecordFallback()                      {}
func (nopRecorder) RecordMerge(int, error)               {}
func (nopRecorder) SetCartTotals(int, float64)           {}

// LineView is a cart line joined with its catalog record. A book missing
// from the catalog renders with an empty name.
type LineView struct {
	Book     int             `json:"book"`
	Name     string          `json:"name"`
	Author   string          `json:"author"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartDeps are the collaborators of the cart service.
type CartDeps struct {
	Local    *LocalBackend
	Remote   CartBackend
	Sessions SessionState
	Catalog  PriceSource
	Metrics  CartRecorder
	Reporter telemetry.Reporter
	Logger   *slog.Logger
}

type cartService struct {
	local    *LocalBackend
	remote   CartBackend
	sessions SessionState
	catalog  PriceSource
	metrics  CartRecorder
	reporter telemetry.Reporter
	logger   *slog.Logger

	// ops is held exclusively by fetch and merge, shared by line
	// mutations. Line mutations on one book are further serialized by
	// bookLocks. Neither is taken while holding mu.
	ops       sync.RWMutex
	bookLocks *keyedMutex

	// mu guards state and subscribers. Never held across I/O.
	mu      sync.Mutex
	state   domain.Cart
	subs    map[int]chan domain.Cart
	nextSub int
}

// NewCartService creates an uninitialized cart.
func NewCartService(deps CartDeps) CartService {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}
	return &cartService{
		local:     deps.Local,
		remote:    deps.Remote,
		sessions:  deps.Sessions,
		catalog:   deps.Catalog,
		metrics:   metrics,
		reporter:  reporter,
		logger:    deps.Logger.With(slog.String("component", "cart")),
		bookLocks: newKeyedMutex(),
		state: domain.Cart{
			Status:     domain.CartUninitialized,
			Items:      []domain.CartLine{},
			TotalPrice: decimal.Zero,
		},
		subs: make(map[int]chan domain.Cart),
	}
}

// backend is the single place that chooses where cart I/O goes.
func (s *cartService) backend(ctx context.Context) CartBackend {
	if s.sessions.IsAuthenticated(ctx) {
		return s.remote
	}
	return s.local
}

// =============================================================================
// FETCH
// =============================================================================

// FetchCart replaces the canonical lines with the backend's. A payload
// whose items are not a list yields an empty cart and a recorded error
// rather than a failure.
func (s *cartService) FetchCart(ctx context.Context) (domain.Cart, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.fetch(ctx)
}

func (s *cartService) fetch(ctx context.Context) (domain.Cart, error) {
	const op = "cart.fetch"
	backend := s.backend(ctx)
	epoch := s.sessions.Epoch()

	s.mu.Lock()
	s.state.Status = domain.CartLoading
	s.publishLocked()
	s.mu.Unlock()

	env, err := backend.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.state.Status = domain.CartReady
		s.mu.Unlock()
		return s.recordFailure(ctx, op, backend.Name(), 0, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions.Epoch() != epoch {
		s.state.Status = domain.CartReady
		s.publishLocked()
		return s.snapshotLocked(), ErrStaleSession
	}

	lines, ok := env.Data.Items.Lines()
	if !ok {
		s.state = domain.Cart{
			Status:     domain.CartReady,
			Items:      []domain.CartLine{},
			TotalPrice: decimal.Zero,
			Err:        domain.ErrorMessage(domain.ErrMalformedCart),
		}
		s.publishLocked()
		s.logger.Warn("cart payload items were not a list, treating as empty", "backend", backend.Name())
		s.reporter.CaptureError(ctx, domain.ErrMalformedCart, map[string]any{"backend": backend.Name()})
		return s.snapshotLocked(), nil
	}

	s.state.Items = s.normalize(lines)
	s.state.TotalQuantity, s.state.TotalPrice = domain.Totals(s.state.Items)
	s.state.Status = domain.CartReady
	s.state.Err = ""
	s.publishLocked()

	s.logger.Debug("cart loaded",
		"backend", backend.Name(),
		"lines", len(s.state.Items),
		"total_quantity", s.state.TotalQuantity,
	)
	return s.snapshotLocked(), nil
}

// normalize drops invalid lines, collapses duplicates and prices lines
// that arrived without a unit price.
func (s *cartService) normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.Book <= 0 || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.Book]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		l.Price = s.unitPrice(l.Book, l.Price)
		index[l.Book] = len(out)
		out = append(out, l)
	}
	return out
}

// unitPrice prefers the price the backend reported, then the catalog.
func (s *cartService) unitPrice(bookID int, reported decimal.Decimal) decimal.Decimal {
	if !reported.IsZero() {
		return reported
	}
	if b, ok := s.catalog.Get(bookID); ok {
		return b.Price
	}
	return decimal.Zero
}

// repriceLocked fills in the unit price of a line that was recorded at zero,
// adding the now-priced quantity to the total.
func (s *cartService) repriceLocked(line *domain.CartLine, reported decimal.Decimal) {
	if !line.Price.IsZero() {
		return
	}
	price := s.unitPrice(line.Book, reported)
	if price.IsZero() {
		return
	}
	line.Price = price
	s.state.TotalPrice = s.state.TotalPrice.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddItem adds quantity to the book's line, creating it when absent.
func (s *cartService) AddItem(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	if bookID <= 0 {
		return s.Snapshot(), domain.ErrInvalidBookID
	}
	if quantity < 1 {
		return s.Snapshot(), domain.ErrInvalidQuantity
	}

	s.ops.RLock()
	defer s.ops.RUnlock()
	release := s.bookLocks.Lock(bookID)
	defer release()

	return s.add(ctx, bookID, quantity)
}

func (s *cartService) add(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	const op = "cart.add"
	backend := s.backend(ctx)
	epoch := s.sessions.Epoch()

	env, err := backend.AddItem(ctx, bookID, quantity)
	s.metrics.RecordMutation("add", backend.Name(), err)
	if err != nil {
		return s.recordFailure(ctx, op, backend.Name(), bookID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Epoch() != epoch {
		return s.snapshotLocked(), ErrStaleSession
	}

	added := env.Data.Quantity
	if added < 1 {
		added = quantity
	}

	if i := s.indexLocked(bookID); i >= 0 {
		line := &s.state.Items[i]
		s.repriceLocked(line, env.Data.Price)
		line.Quantity += added
		s.state.TotalQuantity += added
		s.state.TotalPrice = s.state.TotalPrice.Add(line.Price.Mul(decimal.NewFromInt(int64(added))))
	} else {
		line := domain.CartLine{Book: bookID, Quantity: added, Price: s.unitPrice(bookID, env.Data.Price)}
		s.state.Items = append(s.state.Items, line)
		s.state.TotalQuantity += added
		s.state.TotalPrice = s.state.TotalPrice.Add(line.Subtotal())
	}
	s.state.Err = ""
	s.publishLocked()
	return s.snapshotLocked(), nil
}

// UpdateItemQuantity sets the book's quantity. Zero removes the line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	if bookID <= 0 {
		return s.Snapshot(), domain.ErrInvalidBookID
	}
	if quantity < 0 {
		return s.Snapshot(), domain.Invalid("cart.update", "Quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, bookID)
	}

	s.ops.RLock()
	defer s.ops.RUnlock()
	release := s.bookLocks.Lock(bookID)
	defer release()

	return s.update(ctx, bookID, quantity)
}

func (s *cartService) update(ctx context.Context, bookID, quantity int) (domain.Cart, error) {
	const op = "cart.update"
	backend := s.backend(ctx)
	epoch := s.sessions.Epoch()

	env, err := backend.UpdateQuantity(ctx, bookID, quantity)
	s.metrics.RecordMutation("update", backend.Name(), err)
	if err != nil {
		return s.recordFailure(ctx, op, backend.Name(), bookID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Epoch() != epoch {
		return s.snapshotLocked(), ErrStaleSession
	}

	if i := s.indexLocked(bookID); i >= 0 {
		line := &s.state.Items[i]
		s.repriceLocked(line, env.Data.Price)
		delta := quantity - line.Quantity
		line.Quantity = quantity
		s.state.TotalQuantity += delta
		s.state.TotalPrice = s.state.TotalPrice.Add(line.Price.Mul(decimal.NewFromInt(int64(delta))))
	} else {
		// The backend upserted a line the canonical state did not have.
		line := domain.CartLine{Book: bookID, Quantity: quantity, Price: s.unitPrice(bookID, env.Data.Price)}
		s.state.Items = append(s.state.Items, line)
		s.state.TotalQuantity += quantity
		s.state.TotalPrice = s.state.TotalPrice.Add(line.Subtotal())
	}
	s.state.Err = ""
	s.publishLocked()
	return s.snapshotLocked(), nil
}

// RemoveItem deletes the book's line. Removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, bookID int) (domain.Cart, error) {
	if bookID <= 0 {
		return s.Snapshot(), domain.ErrInvalidBookID
	}

	s.ops.RLock()
	defer s.ops.RUnlock()
	release := s.bookLocks.Lock(bookID)
	defer release()

	return s.remove(ctx, bookID)
}

func (s *cartService) remove(ctx context.Context, bookID int) (domain.Cart, error) {
	const op = "cart.remove"
	backend := s.backend(ctx)
	epoch := s.sessions.Epoch()

	_, err := backend.RemoveItem(ctx, bookID)
	s.metrics.RecordMutation("remove", backend.Name(), err)
	if err != nil {
		return s.recordFailure(ctx, op, backend.Name(), bookID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Epoch() != epoch {
		return s.snapshotLocked(), ErrStaleSession
	}

	if i := s.indexLocked(bookID); i >= 0 {
		line := s.state.Items[i]
		s.state.TotalQuantity -= line.Quantity
		s.state.TotalPrice = s.state.TotalPrice.Sub(line.Subtotal())
		s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	}
	s.state.Err = ""
	s.publishLocked()
	return s.snapshotLocked(), nil
}

// Increment adds one copy of the book.
func (s *cartService) Increment(ctx context.Context, bookID int) (domain.Cart, error) {
	return s.AddItem(ctx, bookID, 1)
}

// Decrement removes one copy of the book; the last copy removes the line.
// Decrementing a book not in the cart is a no-op.
func (s *cartService) Decrement(ctx context.Context, bookID int) (domain.Cart, error) {
	if bookID <= 0 {
		return s.Snapshot(), domain.ErrInvalidBookID
	}

	s.ops.RLock()
	defer s.ops.RUnlock()
	release := s.bookLocks.Lock(bookID)
	defer release()

	line, ok := s.Snapshot().Line(bookID)
	if !ok {
		return s.Snapshot(), nil
	}
	if line.Quantity <= 1 {
		return s.remove(ctx, bookID)
	}
	return s.update(ctx, bookID, line.Quantity-1)
}

// =============================================================================
// MERGE
// =============================================================================

// MergeLocalCart replays every local line onto the server cart additively,
// then empties the local store and refetches. Each line leaves the local
// store as soon as the server accepts it, so a failed run can be retried
// without double-adding. With an empty local store it makes no calls.
func (s *cartService) MergeLocalCart(ctx context.Context) (int, error) {
	const op = "cart.merge"
	if !s.sessions.IsAuthenticated(ctx) {
		return 0, ErrLoginRequired
	}

	s.ops.Lock()
	defer s.ops.Unlock()

	lines := s.local.Lines(ctx)
	if len(lines) == 0 {
		return 0, nil
	}

	mergeID := uuid.NewString()
	ctx = domain.NewContextWithMergeID(ctx, mergeID)
	logger := s.logger.With("merge_id", mergeID)
	epoch := s.sessions.Epoch()

	logger.Info("merging local cart", "lines", len(lines))

	merged := 0
	for _, l := range lines {
		if _, err := s.remote.AddItem(ctx, l.Book, l.Quantity); err != nil {
			s.metrics.RecordMerge(merged, err)
			logger.Error("merge stopped", "book_id", l.Book, "merged", merged, "error", err)
			_, _ = s.recordFailure(ctx, op, BackendRemote, l.Book, err)
			return merged, err
		}
		if _, err := s.local.RemoveItem(ctx, l.Book); err != nil {
			s.metrics.RecordMerge(merged, err)
			_, _ = s.recordFailure(ctx, op, BackendLocal, l.Book, err)
			return merged, err
		}
		merged++
	}

	if err := s.local.Clear(ctx); err != nil {
		logger.Warn("failed to clear local cart after merge", "error", err)
	}
	s.metrics.RecordMerge(merged, nil)

	if s.sessions.Epoch() != epoch {
		return merged, ErrStaleSession
	}

	logger.Info("local cart merged", "lines", merged)
	_, err := s.fetch(ctx)
	return merged, err
}

// =============================================================================
// READ SIDE
// =============================================================================

// Snapshot returns a copy of the canonical cart.
func (s *cartService) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Lines returns the canonical lines joined with catalog records.
func (s *cartService) Lines() []LineView {
	snap := s.Snapshot()
	out := make([]LineView, 0, len(snap.Items))
	for _, l := range snap.Items {
		v := LineView{Book: l.Book, Price: l.Price, Quantity: l.Quantity, Subtotal: l.Subtotal()}
		if b, ok := s.catalog.Get(l.Book); ok {
			v.Name = b.Name
			v.Author = b.Author
			v.Image = b.ImageRef
		}
		out = append(out, v)
	}
	return out
}

// Subscribe returns a channel that receives a snapshot after every
// transition, and a cancel function. Slow subscribers see only the latest
// snapshot.
func (s *cartService) Subscribe() (<-chan domain.Cart, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Cart, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *cartService) indexLocked(bookID int) int {
	for i, l := range s.state.Items {
		if l.Book == bookID {
			return i
		}
	}
	return -1
}

func (s *cartService) snapshotLocked() domain.Cart {
	snap := s.state
	snap.Items = append([]domain.CartLine{}, s.state.Items...)
	return snap
}

func (s *cartService) publishLocked() {
	s.metrics.SetCartTotals(s.state.TotalQuantity, s.state.TotalPrice.InexactFloat64())

	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot and deliver the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// recordFailure keeps the last known good lines, records the message for
// the UI, logs and reports.
func (s *cartService) recordFailure(ctx context.Context, op, backend string, bookID int, err error) (domain.Cart, error) {
	s.mu.Lock()
	s.state.Err = domain.ErrorMessage(err)
	s.publishLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	attrs := []any{"op", op, "backend", backend, "error", err}
	if bookID > 0 {
		attrs = append(attrs, "book_id", bookID)
	}
	if id := domain.MergeIDFromContext(ctx); id != "" {
		attrs = append(attrs, "merge_id", id)
	}
	s.logger.Error("cart operation failed", attrs...)

	extras := map[string]any{"op": op, "backend": backend}
	if bookID > 0 {
		extras["book_id"] = strconv.Itoa(bookID)
	}
	s.reporter.CaptureError(ctx, err, extras)

	return snap, err
}
