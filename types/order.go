// Package types holds the order/fill/book model shared across the engine,
// avoiding the import cycles a strategy<->execution<->risk dependency would
// otherwise create.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType selects the fill rule applied on each price tick.
type OrderType string

const (
	Market       OrderType = "market"
	Limit        OrderType = "limit"
	Stop         OrderType = "stop"
	StopLimit    OrderType = "stop_limit"
	TrailingStop OrderType = "trailing_stop"
	TWAP         OrderType = "twap"
	Iceberg      OrderType = "iceberg"
)

// TimeInForce controls how long an order remains eligible to fill.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
	GTD TimeInForce = "GTD"
)

// Status is a terminal-or-not order lifecycle state. Transitions are
// monotonic: PENDING -> SUBMITTED -> ACCEPTED -> (PARTIALLY_FILLED ->
// FILLED), with REJECTED/CANCELLED/EXPIRED reachable as alternative
// terminals from any pre-terminal (REJECTED) or active (CANCELLED,
// EXPIRED) state.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusSubmitted       Status = "SUBMITTED"
	StatusAccepted        Status = "ACCEPTED"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusExpired         Status = "EXPIRED"
)

// IsActive reports whether an order in this status still accepts fills.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusAccepted, StatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether this status can never transition further.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusRejected, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// TypeConfig carries per-OrderType parameters that don't apply universally.
type TypeConfig struct {
	TWAPSlices        int           // slice count, for Type == TWAP
	TWAPIntervalSec   int           // seconds between slices, for Type == TWAP
	IcebergVisibleQty decimal.Decimal // visible quantity, for Type == Iceberg
}

// Fill is a single execution against an Order. Fills are append-only and
// never modified after creation.
type Fill struct {
	ID        string
	OrderID   string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	TimestampNs int64
	FeeUSD    decimal.Decimal
	TxSignature string // optional external venue signature
}

// Order is the full order record. Invariants: FilledQuantity never exceeds
// Quantity; Status transitions only move forward per the lifecycle above;
// AvgFillPrice is recomputed as the volume-weighted average over Fills on
// every call to ApplyFill.
type Order struct {
	ID             string
	Token          string
	Side           Side
	Type           OrderType
	Quantity       decimal.Decimal
	LimitPrice     *decimal.Decimal
	StopPrice      *decimal.Decimal
	TrailOffset    *decimal.Decimal // fraction in (0,1)
	TIF            TimeInForce
	ExpiryNs       *int64
	SlippageBps    int
	Config         TypeConfig
	Status         Status
	FilledQuantity decimal.Decimal
	AvgFillPrice   decimal.Decimal
	Fills          []Fill
	CreatedNs      int64
	UpdatedNs      int64
}

// NewOrder constructs an order in PENDING status with a fresh 16-hex id.
func NewOrder(token string, side Side, typ OrderType, qty decimal.Decimal, nowNs int64) *Order {
	return &Order{
		ID:             newID(16),
		Token:          token,
		Side:           side,
		Type:           typ,
		Quantity:       qty,
		TIF:            GTC,
		Status:         StatusPending,
		FilledQuantity: decimal.Zero,
		AvgFillPrice:   decimal.Zero,
		CreatedNs:      nowNs,
		UpdatedNs:      nowNs,
	}
}

// RemainingQuantity is Quantity minus FilledQuantity.
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Validate returns the set of reasons this order cannot be admitted to a
// book. An empty slice means the order is well-formed.
func (o *Order) Validate() []string {
	var errs []string
	if o.Quantity.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "quantity must be positive")
	}
	if strings.TrimSpace(o.Token) == "" {
		errs = append(errs, "token must not be empty")
	}
	if (o.Type == Limit || o.Type == StopLimit) && o.LimitPrice == nil {
		errs = append(errs, "limit price required")
	}
	if (o.Type == Stop || o.Type == StopLimit) && o.StopPrice == nil {
		errs = append(errs, "stop price required")
	}
	if o.Type == TrailingStop {
		if o.TrailOffset == nil || o.TrailOffset.LessThanOrEqual(decimal.Zero) || o.TrailOffset.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			errs = append(errs, "trail offset must be in (0,1)")
		}
	}
	if o.TIF == GTD && (o.ExpiryNs == nil || *o.ExpiryNs <= 0) {
		errs = append(errs, "GTD requires a positive expiry")
	}
	if o.Type == Iceberg {
		vis := o.Config.IcebergVisibleQty
		if vis.LessThanOrEqual(decimal.Zero) || vis.GreaterThanOrEqual(o.Quantity) {
			errs = append(errs, "iceberg visible quantity must be in (0, quantity)")
		}
	}
	return errs
}

// ApplyFill records a fill, recomputes the volume-weighted average fill
// price, clips to the remaining quantity, and updates Status. It returns
// the Fill recorded, clipping qty to RemainingQuantity() if it overshoots.
func (o *Order) ApplyFill(price, qty decimal.Decimal, feeUSD decimal.Decimal, nowNs int64, txSig string) Fill {
	remaining := o.RemainingQuantity()
	if qty.GreaterThan(remaining) {
		qty = remaining
	}

	prevFilled := o.FilledQuantity
	prevAvg := o.AvgFillPrice

	newFilled := prevFilled.Add(qty)
	if !newFilled.IsZero() {
		o.AvgFillPrice = prevAvg.Mul(prevFilled).Add(price.Mul(qty)).Div(newFilled)
	}
	o.FilledQuantity = newFilled

	f := Fill{
		ID:          newID(12),
		OrderID:     o.ID,
		Price:       price,
		Quantity:    qty,
		TimestampNs: nowNs,
		FeeUSD:      feeUSD,
		TxSignature: txSig,
	}
	o.Fills = append(o.Fills, f)
	o.UpdatedNs = nowNs

	if o.FilledQuantity.GreaterThanOrEqual(o.Quantity) {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}

	return f
}

func newID(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(raw) < n {
		raw = raw + fmt.Sprintf("%0*x", n, 0)
	}
	return raw[:n]
}

// NowNs returns the current time in nanoseconds, as a convenience for
// callers outside backtest/deterministic contexts.
func NowNs() int64 { return time.Now().UnixNano() }
