package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func TestVolumeBreakoutEntersOnSpikeWithConfirmation(t *testing.T) {
	b := bus.New()
	vb := NewVolumeBreakout(VolumeBreakoutConfig{
		Lookback: 5, VolumeZThreshold: 1.5, ConfirmationBars: 1,
		BaseSizeUSD: 100, SizeScale: 0.1, MaxSizeUSD: 500,
		TrailingStopPct: 0.2, ExitVolumeFraction: 0.3,
	})
	vb.OnStart(b)

	var bought bool
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error {
		if e.Payload.(bus.OrderIntent).Side == "buy" {
			bought = true
		}
		return nil
	})

	prices := []float64{1, 1.01, 1.02, 1.03, 1.04, 1.10}
	volumes := []float64{100, 100, 100, 100, 100, 1000}
	for i := range prices {
		b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: prices[i], Volume24h: volumes[i]}))
	}
	require.True(t, bought)
}

func TestVolumeBreakoutExitsOnVolumeReversion(t *testing.T) {
	b := bus.New()
	vb := NewVolumeBreakout(VolumeBreakoutConfig{
		Lookback: 3, VolumeZThreshold: 1.0, ConfirmationBars: 1,
		BaseSizeUSD: 100, SizeScale: 0, MaxSizeUSD: 500,
		TrailingStopPct: 0.9, ExitVolumeFraction: 0.5,
	})
	vb.OnStart(b)

	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1, Volume24h: 100}))
	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.01, Volume24h: 100}))
	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.02, Volume24h: 100}))
	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.1, Volume24h: 400}))

	var sold bool
	b.Subscribe(bus.KindOrderSubmitted, func(e bus.Event) error {
		if e.Payload.(bus.OrderIntent).Side == "sell" {
			sold = true
		}
		return nil
	})
	// volume drops far below the rolling average -> exit
	b.Publish(bus.New(bus.KindPriceUpdate, "test", bus.PriceUpdate{Token: "MINT", PriceUSD: 1.1, Volume24h: 10}))
	require.True(t, sold)
}
