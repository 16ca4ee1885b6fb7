// Package bus implements the synchronous in-process event bus that routes
// typed events between data feeds, strategies, execution adapters, and the
// trade journal. Dispatch ordering here is the substrate that makes
// backtest replay and live trading produce identical causal chains.
package bus

import (
	"time"
)

// Kind identifies the tagged variant carried by an Event. The bus routes
// purely on Kind; handlers type-assert Payload to the concrete type that
// kind implies.
type Kind string

const (
	KindPriceUpdate       Kind = "price-update"
	KindTrade             Kind = "trade"
	KindOrderbookUpdate   Kind = "orderbook-update"
	KindLiquidityUpdate   Kind = "liquidity-update"
	KindOrderSubmitted    Kind = "order-submitted"
	KindOrderAccepted     Kind = "order-accepted"
	KindOrderFilled       Kind = "order-filled"
	KindOrderPartialFill  Kind = "order-partially-filled"
	KindOrderRejected     Kind = "order-rejected"
	KindOrderCancelled    Kind = "order-cancelled"
	KindGraduation        Kind = "signal-graduation"
	KindBondingProgress   Kind = "signal-bonding-progress"
	KindDevActivity       Kind = "signal-dev-activity"
	KindEngineStart       Kind = "engine-start"
	KindEngineStop        Kind = "engine-stop"
	KindAdapterConnected  Kind = "adapter-connected"
	KindAdapterDisconnect Kind = "adapter-disconnected"
	KindHeartbeat         Kind = "heartbeat"
	KindError             Kind = "error"
)

// Event is an immutable record dispatched on the bus. Once constructed, no
// field changes. Equality is by identity; ordering across events is by bus
// dispatch order, not by TimestampNs.
type Event struct {
	Kind        Kind
	TimestampNs int64
	Source      string
	Payload     any
}

// New builds an Event stamped with the current monotonic wall-clock time.
// Backtest and test code that needs determinism should use NewAt instead.
func New(kind Kind, source string, payload any) Event {
	return Event{Kind: kind, TimestampNs: time.Now().UnixNano(), Source: source, Payload: payload}
}

// NewAt builds an Event with an explicit timestamp, for deterministic replay.
func NewAt(kind Kind, source string, payload any, ts int64) Event {
	return Event{Kind: kind, TimestampNs: ts, Source: source, Payload: payload}
}

// PriceUpdate is the payload for KindPriceUpdate.
type PriceUpdate struct {
	Token        string
	PriceUSD     float64
	Volume24h    float64
	LiquidityUSD float64
}

// GraduationEvent is the payload for KindGraduation. Optional numeric fields
// are zero when unknown to the producer; scoring must treat zero as
// "no signal," never as "signal of zero."
type GraduationEvent struct {
	Mint                string
	Symbol              string
	PoolAddress         string
	PoolKind            string // "pumpswap" | "raydium"
	SOLRaised           float64
	HolderCount         int
	Creator             string
	InitialPriceUSD     float64
	MarketCapUSD        float64 // optional, 0 = unknown
	LiquidityUSD        float64 // optional, 0 = unknown
	Buys1h              int     // optional
	Sells1h             int     // optional
	PriceChange5mPct    float64
	PriceChange1hPct    float64
	PriceChange24hPct   float64
	Top10ConcentPct     float64 // optional, 0 = unknown
	DevHoldingsPct      float64 // optional, 0 = unknown
	SniperCount         int     // optional
	Txns24h             int     // optional
	FreshnessScoreHint  int     // optional, pre-computed externally; 0 if unavailable
}

// DevActivityEvent is the payload for KindDevActivity.
type DevActivityEvent struct {
	Mint   string
	Action string // "sell" | "buy" | "transfer"
}

// BondingProgressEvent is the payload for KindBondingProgress.
type BondingProgressEvent struct {
	Mint         string
	ProgressPct  float64
	SOLRaised    float64
}

// OrderIntent is produced by strategies and consumed by execution adapters.
type OrderIntent struct {
	Side        string // "buy" | "sell"
	Token       string
	AmountUSD   float64 // for buys
	Amount      float64 // token units, for sells
	SlippageBps int
	PoolAddress string
}

// RejectReason is the payload detail for KindOrderRejected.
type RejectReason struct {
	OrderID string
	Token   string
	Reason  string
}

// ErrorEvent is the payload for KindError.
type ErrorEvent struct {
	Source string
	Err    error
}

// HeartbeatPayload is the payload for KindHeartbeat.
type HeartbeatPayload struct {
	Status string
}
