package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLocal(t *testing.T, f *cartFixture, lines map[int]int, order ...int) {
	t.Helper()
	for _, id := range order {
		_, err := f.local.UpdateQuantity(context.Background(), id, lines[id])
		require.NoError(t, err)
	}
}

func TestMergeLocalCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	seedLocal(t, f, map[int]int{1: 2, 2: 1}, 1, 2)
	f.session.authenticate(domain.User{ID: 1})

	merged, err := f.cart.MergeLocalCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	assert.Equal(t, map[int]int{1: 2, 2: 1}, f.server.quantities())
	assert.Empty(t, f.local.Lines(ctx))

	cart := f.cart.Snapshot()
	assert.Equal(t, map[int]int{1: 2, 2: 1}, lineQuantities(cart))
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 1, f.metrics.merges)
}

func TestMergeLocalCart_AddsToServerQuantities(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	seedLocal(t, f, map[int]int{1: 2}, 1)
	_, err := f.server.SetCartItem(ctx, "token", 1, 1)
	require.NoError(t, err)
	f.session.authenticate(domain.User{ID: 1})

	_, err = f.cart.MergeLocalCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 3}, f.server.quantities())
}

func TestMergeLocalCart_MalformedServerCartKeepsLocalLines(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	seedLocal(t, f, map[int]int{1: 2}, 1)
	_, err := f.server.SetCartItem(ctx, "token", 1, 4)
	require.NoError(t, err)
	f.server.rawCart = json.RawMessage(`{"unexpected":true}`)
	f.session.authenticate(domain.User{ID: 1})

	merged, err := f.cart.MergeLocalCart(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, merged)
	assert.Equal(t, map[int]int{1: 4}, f.server.quantities())
	assert.Len(t, f.local.Lines(ctx), 1)
}

func TestMergeLocalCart_SecondRunIsNoop(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	seedLocal(t, f, map[int]int{5: 4}, 5)
	f.session.authenticate(domain.User{ID: 1})

	_, err := f.cart.MergeLocalCart(ctx)
	require.NoError(t, err)
	calls := f.server.callCount()

	merged, err := f.cart.MergeLocalCart(ctx)
	require.NoError(t, err)
	assert.Zero(t, merged)
	assert.Equal(t, calls, f.server.callCount(), "no server calls for an empty local cart")
	assert.Equal(t, map[int]int{5: 4}, f.server.quantities())
}

func TestMergeLocalCart_PartialFailure(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	seedLocal(t, f, map[int]int{1: 2, 2: 1}, 1, 2)
	f.session.authenticate(domain.User{ID: 1})
	f.server.failAfter = 1

	merged, err := f.cart.MergeLocalCart(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, merged)
	assert.Equal(t, map[int]int{1: 2}, f.server.quantities())

	remaining := f.local.Lines(ctx)
	require.Len(t, remaining, 1)
	assert.Equal(t, 2, remaining[0].Book)
	assert.NotEmpty(t, f.cart.Snapshot().Err)

	// Retrying replays only what is left.
	f.server.failAfter = 0
	merged, err = f.cart.MergeLocalCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, merged)
	assert.Equal(t, map[int]int{1: 2, 2: 1}, f.server.quantities())
	assert.Empty(t, f.local.Lines(ctx))
}

func TestMergeLocalCart_RequiresLogin(t *testing.T) {
	f := newCartFixture(t)
	seedLocal(t, f, map[int]int{1: 1}, 1)

	_, err := f.cart.MergeLocalCart(context.Background())
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Len(t, f.local.Lines(context.Background()), 1)
}
