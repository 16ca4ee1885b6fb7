package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func feedPrices(b *bus.Bus, token string, prices []float64) {
	for _, p := range prices {
		b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: token, PriceUSD: p}))
	}
}

func TestMeanReversionEntersOnLowZScore(t *testing.T) {
	b := bus.New()
	m := NewMeanReversion(MeanReversionConfig{Lookback: 5, EntryZ: -1.5, ExitZ: 0, BandMultiplier: 2, PositionSizeUSD: 100})
	m.OnStart(b)

	var bought bool
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error {
		if e.Payload.(bus.OrderIntent).Side == "buy" {
			bought = true
		}
		return nil
	})

	feedPrices(b, "MINT", []float64{10, 10, 10, 10, 10, 1}) // sharp dip after flat mean
	require.True(t, bought)
}

func TestMeanReversionSkipsLowVolatilityRegime(t *testing.T) {
	b := bus.New()
	m := NewMeanReversion(MeanReversionConfig{Lookback: 5, EntryZ: -0.01, ExitZ: 0, BandMultiplier: 2, MinBandwidthPct: 10, PositionSizeUSD: 100})
	m.OnStart(b)

	var bought bool
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error { bought = true; return nil })

	feedPrices(b, "MINT", []float64{10, 10.01, 9.99, 10, 10.01, 9.99})
	require.False(t, bought)
}
