package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dukerupert/folio/internal/address"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/storage"
)

// AddressBook holds the logged-in shopper's delivery addresses. Addresses
// are appended and selected, never edited.
type AddressBook interface {
	Add(ctx context.Context, addr domain.Address) (domain.Address, error)
	List(ctx context.Context) ([]domain.Address, error)
	Get(ctx context.Context, index int) (domain.Address, error)
}

// UserSource yields the logged-in user, if any.
type UserSource interface {
	IsAuthenticated(ctx context.Context) bool
	Snapshot() domain.Session
}

type addressBook struct {
	store     storage.Storage
	users     UserSource
	validator address.Validator
	logger    *slog.Logger

	mu sync.Mutex
}

// NewAddressBook creates an address book persisted in store.
func NewAddressBook(store storage.Storage, users UserSource, validator address.Validator, logger *slog.Logger) AddressBook {
	return &addressBook{
		store:     store,
		users:     users,
		validator: validator,
		logger:    logger.With(slog.String("component", "addresses")),
	}
}

func addressKey(userID int) string {
	return fmt.Sprintf("addresses/%d.json", userID)
}

// Add validates and appends an address. Nothing is stored unless every
// field is filled in.
func (b *addressBook) Add(ctx context.Context, addr domain.Address) (domain.Address, error) {
	const op = "addresses.add"

	user, err := b.user(ctx)
	if err != nil {
		return domain.Address{}, err
	}

	result, err := b.validator.Validate(ctx, addr)
	if err != nil {
		return domain.Address{}, domain.Internal(err, op, "failed to validate address")
	}
	if !result.IsValid {
		return domain.Address{}, &domain.ValidationError{Op: op, Fields: result.Fields()}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.load(ctx, user.ID)
	if err != nil {
		return domain.Address{}, err
	}
	list = append(list, *result.NormalizedAddress)

	data, err := json.Marshal(list)
	if err != nil {
		return domain.Address{}, domain.Internal(err, op, "failed to encode addresses")
	}
	if err := b.store.Put(ctx, addressKey(user.ID), bytes.NewReader(data), "application/json"); err != nil {
		return domain.Address{}, domain.Internal(err, op, "failed to save address")
	}

	b.logger.Info("address added", "user_id", user.ID, "count", len(list))
	return *result.NormalizedAddress, nil
}

// List returns the shopper's addresses in the order they were added.
func (b *addressBook) List(ctx context.Context) ([]domain.Address, error) {
	user, err := b.user(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx, user.ID)
}

// Get returns the address at index.
func (b *addressBook) Get(ctx context.Context, index int) (domain.Address, error) {
	list, err := b.List(ctx)
	if err != nil {
		return domain.Address{}, err
	}
	if index < 0 || index >= len(list) {
		return domain.Address{}, ErrAddressNotFound
	}
	return list[index], nil
}

func (b *addressBook) user(ctx context.Context) (*domain.User, error) {
	if !b.users.IsAuthenticated(ctx) {
		return nil, ErrLoginRequired
	}
	session := b.users.Snapshot()
	if !session.Authenticated() || session.User == nil {
		return nil, ErrLoginRequired
	}
	return session.User, nil
}

func (b *addressBook) load(ctx context.Context, userID int) ([]domain.Address, error) {
	rc, err := b.store.Get(ctx, addressKey(userID))
	if err != nil {
		if storage.IsNotFound(err) {
			return []domain.Address{}, nil
		}
		return nil, domain.Internal(err, "addresses.load", "failed to read addresses")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.Internal(err, "addresses.load", "failed to read addresses")
	}

	var list []domain.Address
	if err := json.Unmarshal(data, &list); err != nil {
		b.logger.Warn("malformed address book, starting empty", "user_id", userID, "error", err)
		return []domain.Address{}, nil
	}
	return list, nil
}
