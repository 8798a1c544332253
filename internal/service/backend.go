package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/localcart"
)

// Backend names, used as metrics labels.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// CartBackend is the I/O capability behind the cart. Both implementations
// answer with the same envelope shapes so the state manager never branches
// on which one is active.
//
// AddItem is additive: the envelope reports the increment that was applied
// and the unit price. UpdateQuantity is absolute and upserts. RemoveItem of
// an absent line succeeds.
type CartBackend interface {
	Name() string
	Fetch(ctx context.Context) (domain.Envelope[domain.RemoteCart], error)
	AddItem(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error)
	UpdateQuantity(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error)
	RemoveItem(ctx context.Context, bookID int) (domain.Envelope[int], error)
}

// TokenSource yields the current bearer token, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// CartAPI is the subset of the API client the remote backend calls.
type CartAPI interface {
	GetCart(ctx context.Context, token string) (*domain.Envelope[domain.RemoteCart], error)
	SetCartItem(ctx context.Context, token string, bookID, quantity int) (*domain.Envelope[domain.CartLine], error)
	DeleteCartItem(ctx context.Context, token string, bookID int) error
}

// =============================================================================
// LOCAL BACKEND
// =============================================================================

// LocalBackend serves the cart from the device's local store.
type LocalBackend struct {
	store *localcart.Store
}

// NewLocalBackend creates a backend over the local cart store.
func NewLocalBackend(store *localcart.Store) *LocalBackend {
	return &LocalBackend{store: store}
}

func (b *LocalBackend) Name() string { return BackendLocal }

// Fetch returns the stored lines. Totals are left zero; lines carry no
// prices and the manager prices them from the catalog.
func (b *LocalBackend) Fetch(ctx context.Context) (domain.Envelope[domain.RemoteCart], error) {
	return domain.Success("Cart loaded from this device.", b.cart(ctx)), nil
}

func (b *LocalBackend) cart(ctx context.Context) domain.RemoteCart {
	lines := b.store.Read(ctx)
	qty, _ := domain.Totals(lines)
	return domain.RemoteCart{Items: domain.ItemsOf(lines), TotalQuantity: qty}
}

// Lines returns the stored lines.
func (b *LocalBackend) Lines(ctx context.Context) []domain.CartLine {
	return b.store.Read(ctx)
}

// AddItem adds quantity to the stored line, creating it when absent.
func (b *LocalBackend) AddItem(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error) {
	if quantity < 1 {
		return domain.Envelope[domain.CartLine]{}, domain.ErrInvalidQuantity
	}

	existing := 0
	for _, l := range b.store.Read(ctx) {
		if l.Book == bookID {
			existing = l.Quantity
			break
		}
	}

	env, err := b.store.Upsert(ctx, bookID, existing+quantity)
	if err != nil {
		return env, err
	}
	env.Message = "Item added to cart."
	env.Data.Quantity = quantity
	return env, nil
}

// UpdateQuantity sets the stored quantity.
func (b *LocalBackend) UpdateQuantity(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error) {
	return b.store.Upsert(ctx, bookID, quantity)
}

// RemoveItem deletes the stored line.
func (b *LocalBackend) RemoveItem(ctx context.Context, bookID int) (domain.Envelope[int], error) {
	return b.store.Remove(ctx, bookID)
}

// Clear empties the local store.
func (b *LocalBackend) Clear(ctx context.Context) error {
	return b.store.Clear(ctx)
}

// =============================================================================
// REMOTE BACKEND
// =============================================================================

// RemoteBackend serves the cart from the bookstore API.
type RemoteBackend struct {
	api      CartAPI
	tokens   TokenSource
	fallback *LocalBackend
	metrics  CartRecorder
	logger   *slog.Logger
}

// NewRemoteBackend creates a backend over the API. Fetch failures are
// answered from fallback.
func NewRemoteBackend(api CartAPI, tokens TokenSource, fallback *LocalBackend, metrics CartRecorder, logger *slog.Logger) *RemoteBackend {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &RemoteBackend{
		api:      api,
		tokens:   tokens,
		fallback: fallback,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "cart.remote")),
	}
}

func (b *RemoteBackend) Name() string { return BackendRemote }

// Fetch loads the server cart. A missing credential or a failed request is
// answered from the local store instead of failing.
func (b *RemoteBackend) Fetch(ctx context.Context) (domain.Envelope[domain.RemoteCart], error) {
	token, ok := b.tokens.Token(ctx)
	if !ok {
		b.logger.Warn("no valid credential for remote cart, using local cart")
		b.metrics.RecordFallback()
		return b.fallback.Fetch(ctx)
	}

	env, err := b.api.GetCart(ctx, token)
	if err != nil {
		b.logger.Warn("failed to fetch remote cart, using local cart", "error", err)
		b.metrics.RecordFallback()
		return b.fallback.Fetch(ctx)
	}
	return *env, nil
}

// AddItem reads the server's current quantity and writes current+quantity,
// since the server endpoint sets rather than adds.
func (b *RemoteBackend) AddItem(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error) {
	const op = "cart.remote.add"
	if quantity < 1 {
		return domain.Envelope[domain.CartLine]{}, domain.ErrInvalidQuantity
	}

	token, ok := b.tokens.Token(ctx)
	if !ok {
		return domain.Envelope[domain.CartLine]{}, ErrLoginRequired
	}

	current, err := b.api.GetCart(ctx, token)
	if err != nil {
		b.logger.Error("failed to read remote cart before add", "book_id", bookID, "error", err)
		return domain.Envelope[domain.CartLine]{}, err
	}

	lines, ok := current.Data.Items.Lines()
	if !ok {
		b.logger.Error("remote cart was not a list, refusing to overwrite quantity",
			"op", op,
			"book_id", bookID,
		)
		return domain.Envelope[domain.CartLine]{}, domain.ErrMalformedCart
	}
	existing := 0
	for _, l := range lines {
		if l.Book == bookID {
			existing = l.Quantity
			break
		}
	}

	env, err := b.api.SetCartItem(ctx, token, bookID, existing+quantity)
	if err != nil {
		b.logger.Error("failed to add item to remote cart",
			"op", op,
			"book_id", bookID,
			"quantity", quantity,
			"error", err,
		)
		return domain.Envelope[domain.CartLine]{}, err
	}

	out := *env
	out.Data.Book = bookID
	out.Data.Quantity = quantity
	return out, nil
}

// UpdateQuantity sets the server quantity.
func (b *RemoteBackend) UpdateQuantity(ctx context.Context, bookID, quantity int) (domain.Envelope[domain.CartLine], error) {
	if quantity < 1 {
		return domain.Envelope[domain.CartLine]{}, domain.ErrInvalidQuantity
	}

	token, ok := b.tokens.Token(ctx)
	if !ok {
		return domain.Envelope[domain.CartLine]{}, ErrLoginRequired
	}

	env, err := b.api.SetCartItem(ctx, token, bookID, quantity)
	if err != nil {
		b.logger.Error("failed to update remote cart item", "book_id", bookID, "quantity", quantity, "error", err)
		return domain.Envelope[domain.CartLine]{}, err
	}

	out := *env
	out.Data.Book = bookID
	out.Data.Quantity = quantity
	return out, nil
}

// RemoveItem deletes the server line. A line the server does not have is
// already removed.
func (b *RemoteBackend) RemoveItem(ctx context.Context, bookID int) (domain.Envelope[int], error) {
	token, ok := b.tokens.Token(ctx)
	if !ok {
		return domain.Envelope[int]{}, ErrLoginRequired
	}

	if err := b.api.DeleteCartItem(ctx, token, bookID); err != nil {
		if !domain.IsCode(err, domain.ENOTFOUND) {
			b.logger.Error("failed to remove remote cart item", "book_id", bookID, "error", err)
			return domain.Envelope[int]{}, err
		}
	}
	return domain.Success("Item removed from cart.", bookID), nil
}
