package strategy

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
)

// SniperConfig holds the tunables of the graduation-sniper state machine.
type SniperConfig struct {
	Filters FilterConfig

	BaseSizeUSD float64

	TakeProfitPct       float64 // e.g. 0.5 = +50%
	StopLossPct         float64 // e.g. 0.2 = -20%
	TrailingActivatePct float64
	TrailingStopPct     float64
	MaxHoldSeconds      int64
	ExitOnDevSell       bool
}

// GraduationSniper is the graduation-sniper strategy: scoring, hard
// filters, score-scaled position sizing, and a per-position exit state
// machine, per spec.md §4.6.
type GraduationSniper struct {
	mu sync.Mutex

	cfg SniperConfig
	bus *bus.Bus

	positions  map[string]*Position
	exitCounts map[ExitReason]int
}

// NewGraduationSniper constructs the strategy with cfg.
func NewGraduationSniper(cfg SniperConfig) *GraduationSniper {
	return &GraduationSniper{
		cfg:        cfg,
		positions:  make(map[string]*Position),
		exitCounts: make(map[ExitReason]int),
	}
}

func (s *GraduationSniper) Name() string { return "graduation-sniper" }

// OnStart subscribes to graduation, price-update, and dev-activity events.
func (s *GraduationSniper) OnStart(b *bus.Bus) error {
	s.mu.Lock()
	s.bus = b
	s.mu.Unlock()

	b.Subscribe(bus.KindGraduation, s.onGraduation)
	b.Subscribe(bus.KindPriceUpdate, s.onPriceUpdate)
	b.Subscribe(bus.KindDevActivity, s.onDevActivity)
	return nil
}

func (s *GraduationSniper) OnStop() error { return nil }

func (s *GraduationSniper) onGraduation(e bus.Event) error {
	g, ok := e.Payload.(bus.GraduationEvent)
	if !ok {
		return nil
	}

	s.mu.Lock()
	_, holding := s.positions[g.Mint]
	active := len(s.positions)
	s.mu.Unlock()

	score := Score(g)
	allowed, reason := PassesFilters(g, score, holding, active, s.cfg.Filters)
	if !allowed {
		log.Debug().Str("mint", g.Mint).Int("score", score).Str("reason", reason).Msg("graduation candidate filtered out")
		return nil
	}

	mult := SizeMultiplier(score)
	if mult <= 0 {
		return nil
	}
	sizeUSD := s.cfg.BaseSizeUSD * mult

	s.mu.Lock()
	s.positions[g.Mint] = &Position{
		Token:        g.Mint,
		Symbol:       g.Symbol,
		EntryPrice:   g.InitialPriceUSD,
		SizeUSD:      sizeUSD,
		Quantity:     sizeUSD / g.InitialPriceUSD,
		EnteredAtNs:  e.TimestampNs,
		HighestPrice: g.InitialPriceUSD,
		EntryScore:   score,
	}
	s.mu.Unlock()

	log.Info().Str("mint", g.Mint).Str("symbol", g.Symbol).Int("score", score).Float64("size_usd", sizeUSD).Msg("graduation-sniper entering position")
	s.bus.Publish(bus.New(bus.KindOrderSubmitted, s.Name(), bus.OrderIntent{
		Side: "buy", Token: g.Mint, AmountUSD: sizeUSD, SlippageBps: 100,
	}))
	return nil
}

func (s *GraduationSniper) onPriceUpdate(e bus.Event) error {
	p, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}

	s.mu.Lock()
	pos, ok := s.positions[p.Token]
	if !ok {
		s.mu.Unlock()
		return nil
	}

	if p.PriceUSD > pos.HighestPrice {
		pos.HighestPrice = p.PriceUSD
	}

	pnlPct := (p.PriceUSD - pos.EntryPrice) / pos.EntryPrice
	drawdownFromHigh := 0.0
	if pos.HighestPrice > 0 {
		drawdownFromHigh = (pos.HighestPrice - p.PriceUSD) / pos.HighestPrice
	}
	peakPnlPct := (pos.HighestPrice - pos.EntryPrice) / pos.EntryPrice
	ageSeconds := (e.TimestampNs - pos.EnteredAtNs) / 1_000_000_000
	quantity := pos.Quantity

	var reason ExitReason
	switch {
	case pnlPct >= s.cfg.TakeProfitPct:
		reason = ExitTakeProfit
	case pnlPct <= -s.cfg.StopLossPct:
		reason = ExitStopLoss
	case peakPnlPct >= s.cfg.TrailingActivatePct && drawdownFromHigh >= s.cfg.TrailingStopPct:
		reason = ExitTrailingStop
	case ageSeconds >= s.cfg.MaxHoldSeconds:
		reason = ExitTimeout
	}
	s.mu.Unlock()

	if reason != "" {
		s.exit(p.Token, quantity, reason)
	}
	return nil
}

func (s *GraduationSniper) onDevActivity(e bus.Event) error {
	if !s.cfg.ExitOnDevSell {
		return nil
	}
	d, ok := e.Payload.(bus.DevActivityEvent)
	if !ok || d.Action != "sell" {
		return nil
	}

	s.mu.Lock()
	pos, ok := s.positions[d.Mint]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.exit(d.Mint, pos.Quantity, ExitDevSell)
	return nil
}

func (s *GraduationSniper) exit(token string, quantity float64, reason ExitReason) {
	s.mu.Lock()
	delete(s.positions, token)
	s.exitCounts[reason]++
	s.mu.Unlock()

	log.Info().Str("token", token).Str("reason", string(reason)).Msg("graduation-sniper exiting position")
	s.bus.Publish(bus.New(bus.KindOrderSubmitted, s.Name(), bus.OrderIntent{
		Side: "sell", Token: token, Amount: quantity, SlippageBps: 100,
	}))
}

// OpenPositions returns the number of currently open positions.
func (s *GraduationSniper) OpenPositions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}

// ExitCounts returns a copy of the per-reason exit counters.
func (s *GraduationSniper) ExitCounts() map[ExitReason]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ExitReason]int, len(s.exitCounts))
	for k, v := range s.exitCounts {
		out[k] = v
	}
	return out
}
