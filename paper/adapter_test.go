package paper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func TestBuyRejectsWhenBalanceInsufficient(t *testing.T) {
	b := bus.New()
	a := New(b, decimal.NewFromFloat(100))

	var rejected bool
	b.Subscribe(bus.KindOrderRejected, func(e bus.Event) error { rejected = true; return nil })

	a.SeedPrice("MINT", 1.0)
	b.Publish(bus.New(bus.KindOrderSubmitted, "test", bus.OrderIntent{Side: "buy", Token: "MINT", AmountUSD: 200}))

	require.True(t, rejected)
	require.True(t, a.Balance().Equal(decimal.NewFromFloat(100)))
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	b := bus.New()
	a := New(b, decimal.NewFromFloat(100))

	a.SeedPrice("MINT", 2.0)
	b.Publish(bus.New(bus.KindOrderSubmitted, "test", bus.OrderIntent{Side: "buy", Token: "MINT", AmountUSD: 20}))

	require.True(t, a.Position("MINT").Equal(decimal.NewFromFloat(10)))
	require.True(t, a.Balance().Equal(decimal.NewFromFloat(80)))

	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 3.0}))
	b.Publish(bus.New(bus.KindOrderSubmitted, "test", bus.OrderIntent{Side: "sell", Token: "MINT", Amount: 10}))

	require.True(t, a.Position("MINT").IsZero())
	require.True(t, a.Balance().Equal(decimal.NewFromFloat(110)))

	realized, unrealized, total := a.PnL()
	require.True(t, realized.Equal(decimal.NewFromFloat(10)))
	require.True(t, unrealized.IsZero())
	require.True(t, total.Equal(decimal.NewFromFloat(10)))
}

func TestSellClipsToHeldQuantity(t *testing.T) {
	b := bus.New()
	a := New(b, decimal.NewFromFloat(100))
	a.SeedPrice("MINT", 1.0)

	b.Publish(bus.New(bus.KindOrderSubmitted, "test", bus.OrderIntent{Side: "buy", Token: "MINT", AmountUSD: 10}))
	b.Publish(bus.New(bus.KindOrderSubmitted, "test", bus.OrderIntent{Side: "sell", Token: "MINT", Amount: 1000}))

	require.True(t, a.Position("MINT").IsZero())
	require.True(t, a.Balance().Equal(decimal.NewFromFloat(100)))
}
