package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/folio/internal/address"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() domain.Address {
	return domain.Address{
		FullName:    "Ada Reader",
		Phone:       "555-0100",
		AddressLine: "12 Quire Lane",
		City:        "Portland",
		State:       "OR",
	}
}

func newTestAddressBook(t *testing.T, v address.Validator) (AddressBook, *fakeSession) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	session := newFakeSession()
	if v == nil {
		v = address.NewBasicValidator()
	}
	return NewAddressBook(store, session, v, discardLogger()), session
}

func TestAddressBook_AddAndList(t *testing.T) {
	book, session := newTestAddressBook(t, nil)
	session.authenticate(domain.User{ID: 4})
	ctx := context.Background()

	in := validAddress()
	in.City = "  Portland "
	saved, err := book.Add(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Portland", saved.City)

	second := validAddress()
	second.FullName = "Second Reader"
	_, err = book.Add(ctx, second)
	require.NoError(t, err)

	list, err := book.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada Reader", list[0].FullName)
	assert.Equal(t, "Second Reader", list[1].FullName)

	got, err := book.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, list[1], got)

	_, err = book.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	_, err = book.Get(ctx, -1)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestAddressBook_IncompleteAddressIsNotStored(t *testing.T) {
	book, session := newTestAddressBook(t, nil)
	session.authenticate(domain.User{ID: 4})
	ctx := context.Background()

	in := validAddress()
	in.Phone = "   "
	_, err := book.Add(ctx, in)
	require.True(t, domain.IsValidationError(err))
	assert.Equal(t, address.RequiredMessage, domain.GetValidationFields(err)["phone"])

	list, err := book.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddressBook_PerUser(t *testing.T) {
	book, session := newTestAddressBook(t, nil)
	ctx := context.Background()

	session.authenticate(domain.User{ID: 1})
	_, err := book.Add(ctx, validAddress())
	require.NoError(t, err)

	session.authenticate(domain.User{ID: 2})
	list, err := book.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddressBook_RequiresLogin(t *testing.T) {
	book, _ := newTestAddressBook(t, nil)
	ctx := context.Background()

	_, err := book.Add(ctx, validAddress())
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = book.List(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestAddressBook_ExpiredTokenRequiresLogin(t *testing.T) {
	book, session := newTestAddressBook(t, nil)
	ctx := context.Background()

	session.authenticate(domain.User{ID: 1})
	_, err := book.Add(ctx, validAddress())
	require.NoError(t, err)

	session.expireToken()
	_, err = book.Add(ctx, validAddress())
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = book.List(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestAddressBook_ValidatorError(t *testing.T) {
	mock := &address.MockValidator{
		ValidateFunc: func(context.Context, domain.Address) (*address.ValidationResult, error) {
			return nil, errors.New("lookup failed")
		},
	}
	book, session := newTestAddressBook(t, mock)
	session.authenticate(domain.User{ID: 1})

	_, err := book.Add(context.Background(), validAddress())
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Equal(t, 1, mock.Calls)
}
