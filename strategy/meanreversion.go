package strategy

import (
	"math"
	"sync"

	"github.com/web3guy0/gradsniper/bus"
)

// MeanReversionConfig parameterizes the Bollinger-band mean-reversion
// strategy of spec.md §4.10.
type MeanReversionConfig struct {
	Lookback         int
	EntryZ           float64 // enter long when Z <= EntryZ
	ExitZ            float64 // exit when Z >= ExitZ
	BandMultiplier   float64
	Adaptive         bool
	FastWindow       int
	SlowWindow       int
	MinBandwidthPct  float64 // skip entries when (upper-lower)/mean is below this
	PositionSizeUSD  float64
}

// bollingerState is the bounded-length rolling price history for one
// token, capped at a small multiple of the lookback per spec.md §3.
type bollingerState struct {
	prices []float64
}

// MeanReversion maintains per-token Bollinger state and enters/exits based
// on a Z-score threshold, with optional volatility-adaptive bands.
type MeanReversion struct {
	mu sync.Mutex

	cfg   MeanReversionConfig
	bus   *bus.Bus
	state map[string]*bollingerState
	held  map[string]bool
}

func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{
		cfg:   cfg,
		state: make(map[string]*bollingerState),
		held:  make(map[string]bool),
	}
}

func (m *MeanReversion) Name() string { return "mean-reversion" }

func (m *MeanReversion) OnStart(b *bus.Bus) error {
	m.mu.Lock()
	m.bus = b
	m.mu.Unlock()
	b.Subscribe(bus.KindPriceUpdate, m.onPriceUpdate)
	return nil
}

func (m *MeanReversion) OnStop() error { return nil }

func (m *MeanReversion) onPriceUpdate(e bus.Event) error {
	p, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}

	m.mu.Lock()
	st, ok := m.state[p.Token]
	if !ok {
		st = &bollingerState{}
		m.state[p.Token] = st
	}

	maxLen := m.cfg.Lookback * 3
	st.prices = append(st.prices, p.PriceUSD)
	if len(st.prices) > maxLen {
		st.prices = st.prices[len(st.prices)-maxLen:]
	}

	if len(st.prices) < m.cfg.Lookback {
		m.mu.Unlock()
		return nil
	}

	window := st.prices[len(st.prices)-m.cfg.Lookback:]
	mean, std := meanStd(window)
	if std == 0 {
		m.mu.Unlock()
		return nil
	}

	mult := m.cfg.BandMultiplier
	if m.cfg.Adaptive && m.cfg.FastWindow > 0 && m.cfg.SlowWindow > 0 && len(st.prices) >= m.cfg.SlowWindow {
		_, fastStd := meanStd(st.prices[len(st.prices)-m.cfg.FastWindow:])
		_, slowStd := meanStd(st.prices[len(st.prices)-m.cfg.SlowWindow:])
		if slowStd > 0 {
			ratio := fastStd / slowStd
			mult *= ratio
			mult = clampFloat(mult, 0.5*m.cfg.BandMultiplier, 2*m.cfg.BandMultiplier)
		}
	}

	upper := mean + mult*std
	lower := mean - mult*std
	z := (p.PriceUSD - mean) / std
	held := m.held[p.Token]

	bandwidthPct := 0.0
	if mean != 0 {
		bandwidthPct = (upper - lower) / math.Abs(mean)
	}
	skipLowVol := bandwidthPct < m.cfg.MinBandwidthPct
	m.mu.Unlock()

	if !held && !skipLowVol && z <= m.cfg.EntryZ {
		m.mu.Lock()
		m.held[p.Token] = true
		m.mu.Unlock()
		m.bus.Publish(bus.New(bus.KindOrderSubmitted, m.Name(), bus.OrderIntent{Side: "buy", Token: p.Token, AmountUSD: m.cfg.PositionSizeUSD, SlippageBps: 100}))
		return nil
	}

	if held && z >= m.cfg.ExitZ {
		m.mu.Lock()
		delete(m.held, p.Token)
		m.mu.Unlock()
		m.bus.Publish(bus.New(bus.KindOrderSubmitted, m.Name(), bus.OrderIntent{Side: "sell", Token: p.Token, Amount: m.cfg.PositionSizeUSD / p.PriceUSD, SlippageBps: 100}))
	}

	return nil
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	if len(xs) > 1 {
		std = math.Sqrt(sumSq / float64(len(xs)-1))
	}
	return mean, std
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
