package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func testSniper() (*GraduationSniper, *bus.Bus) {
	b := bus.New()
	s := NewGraduationSniper(SniperConfig{
		Filters:             FilterConfig{MinLiquidityUSD: 1000, MaxMcapLiqRatio: 1000, MaxConcentration: 90, MinScore: 0, MaxPositions: 5},
		BaseSizeUSD:         100,
		TakeProfitPct:       0.5,
		StopLossPct:         0.2,
		TrailingActivatePct: 0.3,
		TrailingStopPct:     0.15,
		MaxHoldSeconds:      3600,
		ExitOnDevSell:       true,
	})
	s.OnStart(b)
	return s, b
}

func TestGraduationEntersPositionOnQualifyingScore(t *testing.T) {
	s, b := testSniper()

	var submitted bus.OrderIntent
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error {
		submitted = e.Payload.(bus.OrderIntent)
		return nil
	})

	b.Publish(bus.New(bus.KindGraduation, "test", bus.GraduationEvent{
		Mint: "MINT", Symbol: "TEST", InitialPriceUSD: 0.001, LiquidityUSD: 10000, Buys1h: 90, Sells1h: 10,
	}))

	require.Equal(t, "buy", submitted.Side)
	require.Equal(t, "MINT", submitted.Token)
	require.Equal(t, 1, s.OpenPositions())
}

func TestGraduationSkipsFilteredCandidate(t *testing.T) {
	s, b := testSniper()
	b.Publish(bus.New(bus.KindGraduation, "test", bus.GraduationEvent{
		Mint: "MINT", InitialPriceUSD: 0, LiquidityUSD: 10000,
	}))
	require.Equal(t, 0, s.OpenPositions())
}

func TestTakeProfitExitsPosition(t *testing.T) {
	s, b := testSniper()
	b.Publish(bus.New(bus.KindGraduation, "test", bus.GraduationEvent{Mint: "MINT", InitialPriceUSD: 1.0, LiquidityUSD: 10000, Buys1h: 90, Sells1h: 10}))
	require.Equal(t, 1, s.OpenPositions())

	var sells int
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error {
		if e.Payload.(bus.OrderIntent).Side == "sell" {
			sells++
		}
		return nil
	})

	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.6})) // +60% >= 50% TP
	require.Equal(t, 0, s.OpenPositions())
	require.Equal(t, 1, sells)
	require.Equal(t, 1, s.ExitCounts()[ExitTakeProfit])
}

func TestStopLossExitsPosition(t *testing.T) {
	s, b := testSniper()
	b.Publish(bus.New(bus.KindGraduation, "test", bus.GraduationEvent{Mint: "MINT", InitialPriceUSD: 1.0, LiquidityUSD: 10000, Buys1h: 90, Sells1h: 10}))

	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 0.75})) // -25% <= -20% SL
	require.Equal(t, 0, s.OpenPositions())
	require.Equal(t, 1, s.ExitCounts()[ExitStopLoss])
}

func TestDevSellTriggersImmediateExit(t *testing.T) {
	s, b := testSniper()
	b.Publish(bus.New(bus.KindGraduation, "test", bus.GraduationEvent{Mint: "MINT", InitialPriceUSD: 1.0, LiquidityUSD: 10000, Buys1h: 90, Sells1h: 10}))

	b.Publish(bus.New(bus.KindDevActivity, "test", bus.DevActivityEvent{Mint: "MINT", Action: "sell"}))
	require.Equal(t, 0, s.OpenPositions())
	require.Equal(t, 1, s.ExitCounts()[ExitDevSell])
}
