package strategy

import (
	"sync"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

// SignalSource is one weighted input into the composite strategy. A
// source must report Ready(token) == false until it has enough history to
// produce a meaningful reading. Weight is the source's fixed share of the
// composite, fixed at construction (e.g. by backtested track record),
// distinct from the per-tick confidence Evaluate reports.
type SignalSource interface {
	Name() string
	Ready(token string) bool
	Weight() float64
	Evaluate(token string, p bus.PriceUpdate) (value float64, confidence float64)
}

// CompositeConfig parameterizes the composite strategy of spec.md §4.10.
type CompositeConfig struct {
	Sources         []SignalSource
	EnterThreshold  float64
	ExitThreshold   float64
	MinReadySources int
	PositionSizeUSD float64
}

// Attribution tracks a single source's running contribution and hit rate.
type Attribution struct {
	Calls        int
	CumValue     float64
	CorrectCalls int
}

// entrySnapshot is what a position remembers about the composite at the
// moment it entered, so the exit fill can retroactively score each
// source's call against the trade's realized outcome.
type entrySnapshot struct {
	entryPrice float64
	readings   map[string]float64 // source name -> value at entry
}

// Composite aggregates weighted signal sources, entering when the
// confidence-weighted composite clears EnterThreshold with enough ready
// sources, and exiting when it falls to ExitThreshold. Per-signal
// attribution is scored against the REALIZED sign of the trade's P&L at
// exit, not the signal's own sign at entry time — a source that votes
// long right before a loser is marked wrong, never "correct by default."
type Composite struct {
	mu sync.Mutex

	cfg CompositeConfig
	bus *bus.Bus

	held    map[string]bool
	entries map[string]entrySnapshot
	attrib  map[string]*Attribution
}

func NewComposite(cfg CompositeConfig) *Composite {
	attrib := make(map[string]*Attribution, len(cfg.Sources))
	for _, s := range cfg.Sources {
		attrib[s.Name()] = &Attribution{}
	}
	return &Composite{
		cfg:     cfg,
		held:    make(map[string]bool),
		entries: make(map[string]entrySnapshot),
		attrib:  attrib,
	}
}

func (c *Composite) Name() string { return "composite" }

func (c *Composite) OnStart(b *bus.Bus) error {
	c.mu.Lock()
	c.bus = b
	c.mu.Unlock()
	b.Subscribe(bus.KindPriceUpdate, c.onPriceUpdate)
	b.Subscribe(bus.KindOrderFilled, c.onOrderFilled)
	return nil
}

func (c *Composite) OnStop() error { return nil }

func (c *Composite) onPriceUpdate(e bus.Event) error {
	p, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}

	c.mu.Lock()
	var weightedSum, weightSum float64
	readyCount := 0
	readings := make(map[string]float64, len(c.cfg.Sources))

	for _, src := range c.cfg.Sources {
		if !src.Ready(p.Token) {
			continue
		}
		readyCount++
		value, confidence := src.Evaluate(p.Token, p)
		weight := src.Weight()
		a := c.attrib[src.Name()]
		a.Calls++
		a.CumValue += value
		weightedSum += value * confidence * weight
		weightSum += confidence * weight
		readings[src.Name()] = value
	}

	if weightSum == 0 {
		c.mu.Unlock()
		return nil
	}
	composite := weightedSum / weightSum
	held := c.held[p.Token]
	c.mu.Unlock()

	if !held && readyCount >= c.cfg.MinReadySources && composite >= c.cfg.EnterThreshold {
		c.mu.Lock()
		c.held[p.Token] = true
		c.entries[p.Token] = entrySnapshot{entryPrice: p.PriceUSD, readings: readings}
		c.mu.Unlock()
		c.bus.Publish(bus.New(bus.KindOrderSubmitted, c.Name(), bus.OrderIntent{Side: "buy", Token: p.Token, AmountUSD: c.cfg.PositionSizeUSD, SlippageBps: 100}))
		return nil
	}

	if held && composite <= c.cfg.ExitThreshold {
		c.mu.Lock()
		delete(c.held, p.Token)
		c.mu.Unlock()
		c.bus.Publish(bus.New(bus.KindOrderSubmitted, c.Name(), bus.OrderIntent{Side: "sell", Token: p.Token, Amount: c.cfg.PositionSizeUSD / p.PriceUSD, SlippageBps: 100}))
	}

	return nil
}

// onOrderFilled scores each source's entry-time reading against the
// trade's realized P&L sign once the exit fill arrives.
func (c *Composite) onOrderFilled(e bus.Event) error {
	f, ok := e.Payload.(paper.FillPayload)
	if !ok || f.Side != "sell" {
		return nil
	}

	c.mu.Lock()
	snap, ok := c.entries[f.Token]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.entries, f.Token)

	exitPrice, _ := f.Price.Float64()
	outcomeUp := exitPrice > snap.entryPrice

	for name, value := range snap.readings {
		a, ok := c.attrib[name]
		if !ok {
			continue
		}
		sourceCalledUp := value > 0
		if sourceCalledUp == outcomeUp {
			a.CorrectCalls++
		}
	}
	c.mu.Unlock()
	return nil
}

// AttributionSnapshot returns a snapshot of per-source call counts, cumulative
// contribution, and correct-call counts.
func (c *Composite) AttributionSnapshot() map[string]Attribution {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Attribution, len(c.attrib))
	for k, v := range c.attrib {
		out[k] = *v
	}
	return out
}
