package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSubmitRejectsInvalidOrderWithoutAddingToActiveSet(t *testing.T) {
	book := NewOrderBook()
	o := NewOrder("MINT", Buy, Market, decimal.Zero, 1)

	errs := book.Submit(o, 1)
	require.NotEmpty(t, errs)
	require.Equal(t, StatusRejected, o.Status)
	require.Empty(t, book.Active())
}

func TestMarketOrderFillsInFullOnFirstTick(t *testing.T) {
	book := NewOrderBook()
	sim := NewFillSimulator(book)

	o := NewOrder("MINT", Buy, Market, dec(10), 1)
	require.Empty(t, book.Submit(o, 1))

	fills := sim.OnPriceTick("MINT", dec(2.0), 25, 2)
	require.Len(t, fills, 1)
	require.True(t, fills[0].Quantity.Equal(dec(10)))
	require.Equal(t, StatusFilled, o.Status)
	require.Empty(t, book.ActiveForToken("MINT"))
}

func TestLimitBuyWaitsUntilPriceAtOrBelowLimit(t *testing.T) {
	book := NewOrderBook()
	sim := NewFillSimulator(book)

	limit := dec(1.0)
	o := NewOrder("MINT", Buy, Limit, dec(5), 1)
	o.LimitPrice = &limit
	require.Empty(t, book.Submit(o, 1))

	fills := sim.OnPriceTick("MINT", dec(1.5), 0, 2)
	require.Empty(t, fills, "price above limit should not trigger a buy limit")

	fills = sim.OnPriceTick("MINT", dec(0.9), 0, 3)
	require.Len(t, fills, 1)
	require.True(t, fills[0].Price.Equal(limit))
}

func TestStopSellTriggersWhenPriceDropsToStop(t *testing.T) {
	book := NewOrderBook()
	sim := NewFillSimulator(book)

	stop := dec(0.8)
	o := NewOrder("MINT", Sell, Stop, dec(5), 1)
	o.StopPrice = &stop
	require.Empty(t, book.Submit(o, 1))

	fills := sim.OnPriceTick("MINT", dec(0.9), 0, 2)
	require.Empty(t, fills)

	fills = sim.OnPriceTick("MINT", dec(0.75), 0, 3)
	require.Len(t, fills, 1)
	require.Equal(t, StatusFilled, o.Status)
}

func TestTrailingStopSellRatchetsPeakAndTriggersOnPullback(t *testing.T) {
	book := NewOrderBook()
	sim := NewFillSimulator(book)

	trail := dec(0.10) // 10%
	o := NewOrder("MINT", Sell, TrailingStop, dec(5), 1)
	o.TrailOffset = &trail
	require.Empty(t, book.Submit(o, 1))

	require.Empty(t, sim.OnPriceTick("MINT", dec(1.0), 0, 2))
	require.Empty(t, sim.OnPriceTick("MINT", dec(1.2), 0, 3)) // peak ratchets to 1.2
	require.Empty(t, sim.OnPriceTick("MINT", dec(1.15), 0, 4), "within 10% of new peak, no trigger")

	fills := sim.OnPriceTick("MINT", dec(1.05), 0, 5) // below 1.2 * 0.9 = 1.08
	require.Len(t, fills, 1)
	require.Equal(t, StatusFilled, o.Status)
}

func TestPartialFillLeavesOrderActiveUntilFullyFilled(t *testing.T) {
	book := NewOrderBook()
	o := NewOrder("MINT", Buy, Market, dec(10), 1)
	require.Empty(t, book.Submit(o, 1))

	f, err := book.TryFill(o.ID, dec(1.0), dec(4), decimal.Zero, 2, "")
	require.NoError(t, err)
	require.True(t, f.Quantity.Equal(dec(4)))
	require.Equal(t, StatusPartiallyFilled, o.Status)
	require.Len(t, book.Active(), 1)

	_, err = book.TryFill(o.ID, dec(1.0), dec(6), decimal.Zero, 3, "")
	require.NoError(t, err)
	require.Equal(t, StatusFilled, o.Status)
	require.Empty(t, book.Active())
}

func TestCancelRemovesOrderFromActiveSet(t *testing.T) {
	book := NewOrderBook()
	o := NewOrder("MINT", Buy, Limit, dec(5), 1)
	limit := dec(1.0)
	o.LimitPrice = &limit
	require.Empty(t, book.Submit(o, 1))

	require.NoError(t, book.Cancel(o.ID, 2))
	require.Equal(t, StatusCancelled, o.Status)
	require.Empty(t, book.Active())
	require.Error(t, book.Cancel(o.ID, 3), "cancelling a terminal order is an error")
}

func TestExpireRemovesOrderFromActiveSet(t *testing.T) {
	book := NewOrderBook()
	o := NewOrder("MINT", Buy, Limit, dec(5), 1)
	limit := dec(1.0)
	o.LimitPrice = &limit
	require.Empty(t, book.Submit(o, 1))

	require.NoError(t, book.Expire(o.ID, 2))
	require.Equal(t, StatusExpired, o.Status)
	require.Empty(t, book.ActiveForToken("MINT"))
}

func TestTryFillAgainstUnknownOrderIsAnError(t *testing.T) {
	book := NewOrderBook()
	_, err := book.TryFill("nonexistent", dec(1.0), dec(1), decimal.Zero, 1, "")
	require.Error(t, err)
}

func TestActiveForTokenOnlyReturnsMatchingToken(t *testing.T) {
	book := NewOrderBook()
	a := NewOrder("MINT_A", Buy, Market, dec(1), 1)
	b := NewOrder("MINT_B", Buy, Market, dec(1), 1)
	require.Empty(t, book.Submit(a, 1))
	require.Empty(t, book.Submit(b, 1))

	require.Len(t, book.ActiveForToken("MINT_A"), 1)
	require.Len(t, book.ActiveForToken("MINT_B"), 1)
	require.Len(t, book.Active(), 2)
}
