package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaus/orders/internal/books"
)

type fakeItems struct {
	items []books.ItemQty
	err   error
	calls int
}

func (f *fakeItems) ListOrderItems(ctx context.Context, orderID string) ([]books.ItemQty, error) {
	f.calls++
	return f.items, f.err
}

type fakeStock struct {
	stock   map[string]int
	failFor map[string]bool
}

func (f *fakeStock) AdjustStock(ctx context.Context, bookID string, delta int) (int, error) {
	if f.failFor[bookID] {
		return 0, errors.New("write failed")
	}
	cur, ok := f.stock[bookID]
	if !ok {
		return 0, books.ErrBookNotFound
	}
	n := cur + delta
	if n < 0 {
		n = 0
	}
	f.stock[bookID] = n
	return n, nil
}

func newEngine(items *fakeItems, stock *fakeStock) *Engine {
	return &Engine{Items: items, Stock: stock, Log: zerolog.Nop()}
}

func TestApplyNoopTransitionTouchesNothing(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{{BookID: "b1", Qty: 3}}}
	stock := &fakeStock{stock: map[string]int{"b1": 10}}
	eng := newEngine(items, stock)

	movement, results, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, movement)
	assert.Nil(t, results)
	assert.Equal(t, 10, stock.stock["b1"])
	assert.Zero(t, items.calls, "noop should not even fetch items")
}

func TestApplyDeductsOnceAcrossTransitions(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{{BookID: "b1", Qty: 3}}}
	stock := &fakeStock{stock: map[string]int{"b1": 10}}
	eng := newEngine(items, stock)
	ctx := context.Background()

	// pending -> shipped: deduct
	movement, results, err := eng.Apply(ctx, "o1", books.StatusPending, books.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, books.MovementDeduct, movement)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].NewStock)
	assert.Equal(t, 7, stock.stock["b1"])

	// shipped -> delivered: sudah deducted, jangan deduct lagi
	movement, _, err = eng.Apply(ctx, "o1", books.StatusShipped, books.StatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, movement)
	assert.Equal(t, 7, stock.stock["b1"])
}

func TestApplyRestoreAfterDeductRoundTrips(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{{BookID: "b1", Qty: 3}}}
	stock := &fakeStock{stock: map[string]int{"b1": 10}}
	eng := newEngine(items, stock)
	ctx := context.Background()

	_, _, err := eng.Apply(ctx, "o1", books.StatusPending, books.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, 7, stock.stock["b1"])

	movement, results, err := eng.Apply(ctx, "o1", books.StatusShipped, books.StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, books.MovementRestore, movement)
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].NewStock)
	assert.Equal(t, 10, stock.stock["b1"])
}

func TestApplyCancelWithoutDeductIsNoop(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{{BookID: "b1", Qty: 3}}}
	stock := &fakeStock{stock: map[string]int{"b1": 10}}
	eng := newEngine(items, stock)

	movement, _, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, movement)
	assert.Equal(t, 10, stock.stock["b1"], "never deducted, nothing to restore")
}

func TestApplyFloorsStockAtZero(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{{BookID: "b1", Qty: 5}}}
	stock := &fakeStock{stock: map[string]int{"b1": 2}}
	eng := newEngine(items, stock)

	_, results, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusShipped)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].NewStock)
	assert.Equal(t, 0, stock.stock["b1"])
}

func TestApplyItemsAreIndependent(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{
		{BookID: "bookA", Qty: 2},
		{BookID: "bookB", Qty: 3},
	}}
	stock := &fakeStock{
		stock:   map[string]int{"bookA": 10, "bookB": 10},
		failFor: map[string]bool{"bookB": true},
	}
	eng := newEngine(items, stock)

	movement, results, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusShipped)
	require.NoError(t, err, "per-item failure must not fail the call")
	assert.Equal(t, books.MovementDeduct, movement)
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, 8, results[0].NewStock)
	assert.Equal(t, 8, stock.stock["bookA"], "sibling still applied")

	assert.Error(t, results[1].Err)
	assert.Equal(t, 10, stock.stock["bookB"])
}

func TestApplyBookNotFoundIsRecordedAndSkipped(t *testing.T) {
	items := &fakeItems{items: []books.ItemQty{
		{BookID: "missing", Qty: 1},
		{BookID: "b2", Qty: 2},
	}}
	stock := &fakeStock{stock: map[string]int{"b2": 5}}
	eng := newEngine(items, stock)

	_, results, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusShipped)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, books.ErrBookNotFound)
	assert.Equal(t, 3, stock.stock["b2"])
}

func TestApplyAbortsWhenItemLookupFails(t *testing.T) {
	items := &fakeItems{err: errors.New("db down")}
	stock := &fakeStock{stock: map[string]int{"b1": 10}}
	eng := newEngine(items, stock)

	_, _, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusShipped)
	require.Error(t, err)
	assert.Equal(t, 10, stock.stock["b1"], "no partial mutation on lookup failure")
}

func TestApplyAbortsWhenOrderHasNoItems(t *testing.T) {
	eng := newEngine(&fakeItems{}, &fakeStock{stock: map[string]int{}})

	_, _, err := eng.Apply(context.Background(), "o1", books.StatusPending, books.StatusShipped)
	require.Error(t, err)
}
