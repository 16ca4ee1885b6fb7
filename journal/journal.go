// Package journal records every fill, matches buy/sell pairs FIFO into
// round trips, and computes the performance summary of spec.md §4.9.
package journal

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

// Trade is one recorded fill.
type Trade struct {
	Token       string
	Side        string // "buy" | "sell"
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	TimestampNs int64
	Strategy    string
	FeesUSD     decimal.Decimal
	TxSignature string
}

// RoundTrip is a matched entry/exit pair.
type RoundTrip struct {
	Token       string
	EntryPrice  decimal.Decimal
	ExitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	PnLUSD      decimal.Decimal
	PnLPct      float64
	HoldNs      int64
	EntryTimeNs int64
	ExitTimeNs  int64
}

// TradeJournal records fills and matches them into round trips, per
// spec.md §4.9.
type TradeJournal struct {
	mu sync.Mutex

	initialEquity decimal.Decimal
	currentEquity decimal.Decimal

	trades     []Trade
	roundTrips []RoundTrip
	openBuys   map[string][]Trade
	equityCurve []decimal.Decimal

	roundTripSink func(RoundTrip)
}

// NewTradeJournal constructs a journal seeded with initialEquity.
func NewTradeJournal(initialEquity decimal.Decimal) *TradeJournal {
	return &TradeJournal{
		initialEquity: initialEquity,
		currentEquity: initialEquity,
		openBuys:      make(map[string][]Trade),
		equityCurve:   []decimal.Decimal{initialEquity},
	}
}

// Record appends a fill and, for sells, attempts a FIFO match against open
// buys for the same token. When a match completes a round trip and a sink
// is registered (see Attach/SetRoundTripSink), the sink is invoked after
// the journal's own lock is released.
func (j *TradeJournal) Record(t Trade) {
	j.mu.Lock()
	j.trades = append(j.trades, t)

	var completed *RoundTrip
	switch t.Side {
	case "buy":
		j.openBuys[t.Token] = append(j.openBuys[t.Token], t)
	case "sell":
		completed = j.matchRoundTrip(t)
	}
	sink := j.roundTripSink
	j.mu.Unlock()

	if completed != nil && sink != nil {
		sink(*completed)
	}
}

// SetRoundTripSink registers a callback invoked once per matched round
// trip, e.g. to persist it via storage.Store.LogRoundTrip. A nil sink
// disables the callback.
func (j *TradeJournal) SetRoundTripSink(sink func(RoundTrip)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.roundTripSink = sink
}

// Attach subscribes the journal to order-filled events, recording each
// fill as a Trade, per spec.md §4.9.
func (j *TradeJournal) Attach(b *bus.Bus) {
	b.Subscribe(bus.KindOrderFilled, j.onOrderFilled)
}

func (j *TradeJournal) onOrderFilled(e bus.Event) error {
	f, ok := e.Payload.(paper.FillPayload)
	if !ok {
		return nil
	}
	j.Record(Trade{
		Token:       f.Token,
		Side:        f.Side,
		Price:       f.Price,
		Quantity:    f.Quantity,
		TimestampNs: e.TimestampNs,
		TxSignature: f.TxSignature,
	})
	return nil
}

func (j *TradeJournal) matchRoundTrip(sell Trade) *RoundTrip {
	buys := j.openBuys[sell.Token]
	if len(buys) == 0 {
		return nil
	}
	buy := buys[0]
	j.openBuys[sell.Token] = buys[1:]

	qty := buy.Quantity
	if sell.Quantity.LessThan(qty) {
		qty = sell.Quantity
	}

	pnl := qty.Mul(sell.Price.Sub(buy.Price)).Sub(buy.FeesUSD).Sub(sell.FeesUSD)
	pnlPct := 0.0
	if buy.Price.GreaterThan(decimal.Zero) {
		pnlPct, _ = sell.Price.Sub(buy.Price).Div(buy.Price).Float64()
	}

	rt := RoundTrip{
		Token:       sell.Token,
		EntryPrice:  buy.Price,
		ExitPrice:   sell.Price,
		Quantity:    qty,
		PnLUSD:      pnl,
		PnLPct:      pnlPct,
		HoldNs:      sell.TimestampNs - buy.TimestampNs,
		EntryTimeNs: buy.TimestampNs,
		ExitTimeNs:  sell.TimestampNs,
	}
	j.roundTrips = append(j.roundTrips, rt)
	j.currentEquity = j.currentEquity.Add(pnl)
	j.equityCurve = append(j.equityCurve, j.currentEquity)
	return &rt
}

// Trades returns a copy of every recorded fill.
func (j *TradeJournal) Trades() []Trade {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Trade, len(j.trades))
	copy(out, j.trades)
	return out
}

// RoundTrips returns a copy of every matched round trip.
func (j *TradeJournal) RoundTrips() []RoundTrip {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]RoundTrip, len(j.roundTrips))
	copy(out, j.roundTrips)
	return out
}

// EquityCurve returns a copy of the equity curve (one point per closed
// round trip, plus the seed point).
func (j *TradeJournal) EquityCurve() []decimal.Decimal {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]decimal.Decimal, len(j.equityCurve))
	copy(out, j.equityCurve)
	return out
}

// Summary is the comprehensive performance report of spec.md §4.9.
type Summary struct {
	TradeCount          int
	WinCount            int
	LossCount           int
	WinRate             float64
	TotalPnLUSD         decimal.Decimal
	GrossProfitUSD      decimal.Decimal
	GrossLossUSD        decimal.Decimal
	ProfitFactor        float64
	Expectancy          float64
	AvgWinUSD           decimal.Decimal
	AvgLossUSD          decimal.Decimal
	Sharpe              float64
	Sortino             float64
	MaxDrawdown         float64
	MaxDrawdownDuration int
	RecoveryFactor      float64
	MaxWinStreak        int
	MaxLossStreak       int
	CurrentEquity       decimal.Decimal
	TotalReturnPct      float64
}

const periodsPerYear = 365.0

// Summary computes the full performance report over all round trips
// recorded so far.
func (j *TradeJournal) Summary() Summary {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.roundTrips) == 0 {
		return Summary{TradeCount: 0, TotalPnLUSD: decimal.Zero, CurrentEquity: j.currentEquity}
	}

	var wins, losses []RoundTrip
	totalPnL := decimal.Zero
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	returns := make([]float64, 0, len(j.roundTrips))
	outcomes := make([]bool, 0, len(j.roundTrips))

	for _, rt := range j.roundTrips {
		totalPnL = totalPnL.Add(rt.PnLUSD)
		returns = append(returns, rt.PnLPct)
		win := rt.PnLUSD.GreaterThan(decimal.Zero)
		outcomes = append(outcomes, win)
		if win {
			wins = append(wins, rt)
			grossProfit = grossProfit.Add(rt.PnLUSD)
		} else {
			losses = append(losses, rt)
			grossLoss = grossLoss.Add(rt.PnLUSD.Abs())
		}
	}

	winRate := float64(len(wins)) / float64(len(j.roundTrips))
	avgWin := decimal.Zero
	if len(wins) > 0 {
		avgWin = grossProfit.Div(decimal.NewFromInt(int64(len(wins))))
	}
	avgLoss := decimal.Zero
	if len(losses) > 0 {
		avgLoss = grossLoss.Div(decimal.NewFromInt(int64(len(losses))))
	}

	avgWinF, _ := avgWin.Float64()
	avgLossF, _ := avgLoss.Float64()

	maxDD, maxDDDuration := maxDrawdown(j.equityCurve)
	streaks := computeStreaks(outcomes)

	initialF, _ := j.initialEquity.Float64()
	maxDDUSD := maxDD * initialF
	totalPnLF, _ := totalPnL.Float64()

	currentF, _ := j.currentEquity.Float64()
	var totalReturnPct float64
	if initialF != 0 {
		totalReturnPct = (currentF - initialF) / initialF * 100
	}

	return Summary{
		TradeCount:          len(j.roundTrips),
		WinCount:            len(wins),
		LossCount:           len(losses),
		WinRate:             winRate,
		TotalPnLUSD:         totalPnL,
		GrossProfitUSD:      grossProfit,
		GrossLossUSD:        grossLoss,
		ProfitFactor:        profitFactor(grossProfit, grossLoss),
		Expectancy:          winRate*avgWinF - (1-winRate)*avgLossF,
		AvgWinUSD:           avgWin,
		AvgLossUSD:          avgLoss,
		Sharpe:              sharpe(returns, 0, periodsPerYear),
		Sortino:             sortino(returns, 0, periodsPerYear),
		MaxDrawdown:         maxDD,
		MaxDrawdownDuration: maxDDDuration,
		RecoveryFactor:      recoveryFactor(totalPnLF, maxDDUSD),
		MaxWinStreak:        streaks.maxWin,
		MaxLossStreak:       streaks.maxLoss,
		CurrentEquity:       j.currentEquity,
		TotalReturnPct:      totalReturnPct,
	}
}

func profitFactor(grossProfit, grossLoss decimal.Decimal) float64 {
	if grossLoss.LessThanOrEqual(decimal.Zero) {
		if grossProfit.GreaterThan(decimal.Zero) {
			return math.Inf(1)
		}
		return 0
	}
	f, _ := grossProfit.Div(grossLoss).Float64()
	return f
}

func recoveryFactor(totalPnL, maxDrawdownUSD float64) float64 {
	if maxDrawdownUSD <= 0 {
		return 0
	}
	return totalPnL / maxDrawdownUSD
}

// sharpe is the annualized Sharpe ratio: mean excess return over sample
// standard deviation, scaled by sqrt(periodsPerYear).
func sharpe(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, std := meanAndStd(returns, riskFree, false)
	if std == 0 {
		return 0
	}
	return (mean / std) * math.Sqrt(periodsPerYear)
}

// sortino is the annualized Sortino ratio: downside-deviation-only
// variant of sharpe, using min(r,0)^2 for the variance term.
func sortino(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, downsideStd := meanAndStd(returns, riskFree, true)
	if downsideStd == 0 {
		return 0
	}
	return (mean / downsideStd) * math.Sqrt(periodsPerYear)
}

func meanAndStd(returns []float64, riskFree float64, downsideOnly bool) (mean, std float64) {
	excess := make([]float64, len(returns))
	sum := 0.0
	for i, r := range returns {
		excess[i] = r - riskFree
		sum += excess[i]
	}
	mean = sum / float64(len(excess))

	var sumSq float64
	for _, r := range excess {
		if downsideOnly {
			d := math.Min(r, 0)
			sumSq += d * d
		} else {
			d := r - mean
			sumSq += d * d
		}
	}
	variance := sumSq / float64(len(excess)-1)
	if variance <= 0 {
		return mean, 0
	}
	return mean, math.Sqrt(variance)
}

// maxDrawdown returns the largest peak-to-trough fractional decline in
// curve and the longest contiguous run (in periods) spent below a prior
// peak.
func maxDrawdown(curve []decimal.Decimal) (maxDD float64, duration int) {
	if len(curve) < 2 {
		return 0, 0
	}

	peak := curve[0]
	for _, v := range curve {
		if v.GreaterThan(peak) {
			peak = v
		}
		if peak.GreaterThan(decimal.Zero) {
			dd, _ := peak.Sub(v).Div(peak).Float64()
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	peak = curve[0]
	current := 0
	for _, v := range curve {
		if v.GreaterThanOrEqual(peak) {
			peak = v
			current = 0
		} else {
			current++
			if current > duration {
				duration = current
			}
		}
	}

	return maxDD, duration
}

type streakStats struct {
	maxWin, maxLoss int
}

// computeStreaks returns the longest consecutive-win and consecutive-loss
// runs in outcomes.
func computeStreaks(outcomes []bool) streakStats {
	if len(outcomes) == 0 {
		return streakStats{}
	}

	var maxWin, maxLoss, cur int
	cur = 1
	for i := 1; i < len(outcomes); i++ {
		if outcomes[i] == outcomes[i-1] {
			cur++
			continue
		}
		if outcomes[i-1] {
			maxWin = maxInt(maxWin, cur)
		} else {
			maxLoss = maxInt(maxLoss, cur)
		}
		cur = 1
	}
	if outcomes[len(outcomes)-1] {
		maxWin = maxInt(maxWin, cur)
	} else {
		maxLoss = maxInt(maxLoss, cur)
	}

	return streakStats{maxWin: maxWin, maxLoss: maxLoss}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
