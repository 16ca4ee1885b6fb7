// Package strategy implements the graduation-sniper strategy and the
// other signal sources of spec.md §4.6/§4.10, each consuming bus events
// and producing order-intent events.
package strategy

import (
	"github.com/web3guy0/gradsniper/bus"
)

// Strategy is the plug-in contract the engine orchestrator drives: it
// installs subscriptions in OnStart; OnStop is called at shutdown (the
// strategies in this package leave their subscriptions in place). Errors
// from either are logged by the caller, never propagated as a fatal
// engine failure (spec.md §4.2 step 6).
type Strategy interface {
	Name() string
	OnStart(b *bus.Bus) error
	OnStop() error
}

// Position is the strategy-local open-position record of spec.md §3.
// Mutated only by price updates (HighestPrice monotone non-decreasing)
// and removed on exit.
type Position struct {
	Token        string
	Symbol       string
	EntryPrice   float64
	SizeUSD      float64
	Quantity     float64
	EnteredAtNs  int64
	HighestPrice float64
	EntryScore   int
}

// ExitReason enumerates why a position's state machine closed a position.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "TP"
	ExitStopLoss     ExitReason = "SL"
	ExitTrailingStop ExitReason = "TRAIL"
	ExitTimeout      ExitReason = "TIMEOUT"
	ExitDevSell      ExitReason = "DEV_SELL"
)
