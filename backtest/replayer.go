// Package backtest implements the deterministic graduation-and-price
// replayer of spec.md §4.7.
package backtest

import (
	"sort"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

// PricePoint is one historical price observation in a graduation record's
// history.
type PricePoint struct {
	TimestampNs int64
	Price       float64
	Volume5m    float64
}

// Record is one historical graduation with its subsequent price history.
type Record struct {
	Mint            string
	Symbol          string
	GraduatedAtNs   int64
	InitialPriceUSD float64
	PoolAddress     string
	PoolType        string
	SOLRaised       float64
	HolderCount     int
	Creator         string
	History         []PricePoint
}

// Result is the outcome of one Run.
type Result struct {
	RecordsReplayed int
	FinalBalanceUSD float64
	PeakEquityUSD   float64
	MaxDrawdown     float64
}

// Replayer drives graduation and price-update events onto the bus in
// deterministic order, seeding the paper adapter's last-observed-price for
// each mint before its graduation event, per spec.md §4.7. It performs no
// wall-clock reads; every timestamp comes from the input records.
type Replayer struct {
	bus   *bus.Bus
	paper *paper.Adapter
}

// NewReplayer constructs a replayer wired to b and the paper adapter whose
// equity/balance the run will track.
func NewReplayer(b *bus.Bus, p *paper.Adapter) *Replayer {
	return &Replayer{bus: b, paper: p}
}

// Run replays records in graduated_at order: seeds the paper adapter's
// price for each mint, publishes its graduation event, then its price
// history in timestamp order, updating a running equity peak and maximum
// drawdown fraction after every publish.
func (r *Replayer) Run(records []Record) Result {
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].GraduatedAtNs < ordered[j].GraduatedAtNs })

	var peak, maxDD float64
	observe := func() {
		equity, _ := r.paper.Equity().Float64()
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	for _, rec := range ordered {
		r.paper.SeedPrice(rec.Mint, rec.InitialPriceUSD)
		r.bus.Publish(bus.NewAt(bus.KindGraduation, "backtest", bus.GraduationEvent{
			Mint:            rec.Mint,
			Symbol:          rec.Symbol,
			PoolAddress:     rec.PoolAddress,
			PoolKind:        rec.PoolType,
			SOLRaised:       rec.SOLRaised,
			HolderCount:     rec.HolderCount,
			Creator:         rec.Creator,
			InitialPriceUSD: rec.InitialPriceUSD,
		}, rec.GraduatedAtNs))
		observe()

		history := make([]PricePoint, len(rec.History))
		copy(history, rec.History)
		sort.Slice(history, func(i, j int) bool { return history[i].TimestampNs < history[j].TimestampNs })

		for _, pt := range history {
			r.bus.Publish(bus.NewAt(bus.KindPriceUpdate, "backtest", bus.PriceUpdate{
				Token: rec.Mint, PriceUSD: pt.Price, Volume24h: pt.Volume5m,
			}, pt.TimestampNs))
			observe()
		}
	}

	balance, _ := r.paper.Balance().Float64()
	return Result{
		RecordsReplayed: len(ordered),
		FinalBalanceUSD: balance,
		PeakEquityUSD:   peak,
		MaxDrawdown:     maxDD,
	}
}
