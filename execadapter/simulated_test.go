package execadapter

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

func TestSimulatedConnectPublishesAdapterConnected(t *testing.T) {
	b := bus.New()
	var got bool
	b.Subscribe(bus.KindAdapterConnected, func(e bus.Event) error {
		got = true
		return nil
	})

	s := NewSimulated("sim-venue")
	require.NoError(t, s.Connect(context.Background(), b))
	require.True(t, got)
}

func TestSimulatedOrderSubmittedAcceptedThenFilledOnNextTick(t *testing.T) {
	b := bus.New()
	s := NewSimulated("sim-venue")
	require.NoError(t, s.Connect(context.Background(), b))

	var accepted, filled bool
	var fill paper.FillPayload
	b.Subscribe(bus.KindOrderAccepted, func(e bus.Event) error { accepted = true; return nil })
	b.Subscribe(bus.KindOrderFilled, func(e bus.Event) error {
		filled = true
		fill = e.Payload.(paper.FillPayload)
		return nil
	})

	b.Publish(bus.NewAt(bus.KindPriceUpdate, "feed", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.0}, 1))
	b.Publish(bus.NewAt(bus.KindOrderSubmitted, "strategy", bus.OrderIntent{
		Side: "buy", Token: "MINT", AmountUSD: 100, SlippageBps: 0,
	}, 2))
	require.True(t, accepted)
	require.False(t, filled, "market order should not fill until the next price tick")

	b.Publish(bus.NewAt(bus.KindPriceUpdate, "feed", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.0}, 3))
	require.True(t, filled)
	require.Equal(t, "MINT", fill.Token)
	require.Equal(t, "buy", fill.Side)
	require.True(t, fill.Quantity.Equal(decimal.NewFromInt(100)))
}

func TestSimulatedRejectsMalformedIntent(t *testing.T) {
	b := bus.New()
	s := NewSimulated("sim-venue")
	require.NoError(t, s.Connect(context.Background(), b))

	var rejected bool
	b.Subscribe(bus.KindOrderRejected, func(e bus.Event) error { rejected = true; return nil })

	b.Publish(bus.NewAt(bus.KindOrderSubmitted, "strategy", bus.OrderIntent{
		Side: "buy", Token: "MINT", AmountUSD: 0,
	}, 1))
	require.True(t, rejected)
}

func TestSimulatedSubmitOrderBeforeConnectReturnsNotConnected(t *testing.T) {
	s := NewSimulated("sim-venue")
	_, err := s.SubmitOrder(context.Background(), bus.OrderIntent{Side: "buy", Token: "MINT", AmountUSD: 10})
	require.ErrorIs(t, err, ErrNotConnected())
}

func TestSimulatedDisconnectIsIdempotent(t *testing.T) {
	b := bus.New()
	s := NewSimulated("sim-venue")
	require.NoError(t, s.Connect(context.Background(), b))
	require.NoError(t, s.Disconnect(context.Background()))
	require.NoError(t, s.Disconnect(context.Background()))
}
