package strategy

import (
	"sync"

	"github.com/web3guy0/gradsniper/bus"
)

// VolumeBreakoutConfig parameterizes the volume-breakout strategy of
// spec.md §4.10.
type VolumeBreakoutConfig struct {
	Lookback           int
	VolumeZThreshold   float64
	ConfirmationBars   int
	BaseSizeUSD        float64
	SizeScale          float64
	MaxSizeUSD         float64
	TrailingStopPct    float64
	ExitVolumeFraction float64 // exit when volume reverts below this * avg volume
}

type breakoutState struct {
	prices  []float64
	volumes []float64
	held    bool
	peak    float64
	barsUp  int
}

// VolumeBreakout maintains per-token volume/price ring buffers and enters
// on a volume Z-score spike confirmed by short-term upward momentum.
type VolumeBreakout struct {
	mu sync.Mutex

	cfg   VolumeBreakoutConfig
	bus   *bus.Bus
	state map[string]*breakoutState
}

func NewVolumeBreakout(cfg VolumeBreakoutConfig) *VolumeBreakout {
	return &VolumeBreakout{cfg: cfg, state: make(map[string]*breakoutState)}
}

func (v *VolumeBreakout) Name() string { return "volume-breakout" }

func (v *VolumeBreakout) OnStart(b *bus.Bus) error {
	v.mu.Lock()
	v.bus = b
	v.mu.Unlock()
	b.Subscribe(bus.KindPriceUpdate, v.onPriceUpdate)
	return nil
}

func (v *VolumeBreakout) OnStop() error { return nil }

func (v *VolumeBreakout) onPriceUpdate(e bus.Event) error {
	p, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}

	v.mu.Lock()
	st, ok := v.state[p.Token]
	if !ok {
		st = &breakoutState{}
		v.state[p.Token] = st
	}

	maxLen := v.cfg.Lookback * 3
	st.prices = appendCapped(st.prices, p.PriceUSD, maxLen)
	st.volumes = appendCapped(st.volumes, p.Volume24h, maxLen)

	if st.held {
		if p.PriceUSD > st.peak {
			st.peak = p.PriceUSD
		}
	}

	if len(st.volumes) < v.cfg.Lookback {
		v.mu.Unlock()
		return nil
	}

	window := st.volumes[len(st.volumes)-v.cfg.Lookback:]
	volMean, volStd := meanStd(window)

	if st.held {
		drawdown := 0.0
		if st.peak > 0 {
			drawdown = (st.peak - p.PriceUSD) / st.peak
		}
		volExit := volMean > 0 && p.Volume24h < v.cfg.ExitVolumeFraction*volMean
		shouldExit := drawdown >= v.cfg.TrailingStopPct || volExit
		heldSize := v.cfg.BaseSizeUSD
		v.mu.Unlock()

		if shouldExit {
			v.mu.Lock()
			delete(v.state, p.Token)
			v.mu.Unlock()
			v.bus.Publish(bus.New(bus.KindOrderSubmitted, v.Name(), bus.OrderIntent{Side: "sell", Token: p.Token, Amount: heldSize / p.PriceUSD, SlippageBps: 100}))
		}
		return nil
	}

	if volStd == 0 {
		v.mu.Unlock()
		return nil
	}
	z := (p.Volume24h - volMean) / volStd

	if len(st.prices) >= 2 && st.prices[len(st.prices)-1] > st.prices[len(st.prices)-2] {
		st.barsUp++
	} else {
		st.barsUp = 0
	}

	spike := z >= v.cfg.VolumeZThreshold
	confirmed := st.barsUp >= v.cfg.ConfirmationBars
	if !spike || !confirmed {
		v.mu.Unlock()
		return nil
	}

	magnitude := z - v.cfg.VolumeZThreshold
	size := v.cfg.BaseSizeUSD * (1 + v.cfg.SizeScale*magnitude)
	if size > v.cfg.MaxSizeUSD {
		size = v.cfg.MaxSizeUSD
	}
	st.held = true
	st.peak = p.PriceUSD
	v.mu.Unlock()

	v.bus.Publish(bus.New(bus.KindOrderSubmitted, v.Name(), bus.OrderIntent{Side: "buy", Token: p.Token, AmountUSD: size, SlippageBps: 100}))
	return nil
}

func appendCapped(xs []float64, v float64, maxLen int) []float64 {
	xs = append(xs, v)
	if len(xs) > maxLen {
		xs = xs[len(xs)-maxLen:]
	}
	return xs
}
