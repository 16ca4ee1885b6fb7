package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderBook owns a set of orders keyed by id plus the active subset. It is
// the sole mutator of order status transitions; no other component reaches
// into an Order's fields directly.
type OrderBook struct {
	orders   map[string]*Order
	activeID map[string]bool
}

// NewOrderBook returns an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[string]*Order), activeID: make(map[string]bool)}
}

// Submit validates order and, on success, transitions it to SUBMITTED and
// admits it to the book. On validation failure the order is marked
// REJECTED and the validation errors are returned; it is never added to
// the active set.
func (b *OrderBook) Submit(o *Order, nowNs int64) []string {
	if errs := o.Validate(); len(errs) > 0 {
		o.Status = StatusRejected
		o.UpdatedNs = nowNs
		b.orders[o.ID] = o
		return errs
	}

	o.Status = StatusSubmitted
	o.UpdatedNs = nowNs
	b.orders[o.ID] = o
	b.activeID[o.ID] = true
	return nil
}

// Accept moves an order from SUBMITTED to ACCEPTED.
func (b *OrderBook) Accept(id string, nowNs int64) error {
	o, ok := b.orders[id]
	if !ok || o.Status != StatusSubmitted {
		return fmt.Errorf("order %s not submitted", id)
	}
	o.Status = StatusAccepted
	o.UpdatedNs = nowNs
	return nil
}

// Cancel removes an active order from the book. Terminal orders cannot be
// cancelled.
func (b *OrderBook) Cancel(id string, nowNs int64) error {
	o, ok := b.orders[id]
	if !ok || !o.Status.IsActive() {
		return fmt.Errorf("order %s is not active", id)
	}
	o.Status = StatusCancelled
	o.UpdatedNs = nowNs
	delete(b.activeID, id)
	return nil
}

// Expire moves an active order whose TIF has been breached to EXPIRED.
func (b *OrderBook) Expire(id string, nowNs int64) error {
	o, ok := b.orders[id]
	if !ok || !o.Status.IsActive() {
		return fmt.Errorf("order %s is not active", id)
	}
	o.Status = StatusExpired
	o.UpdatedNs = nowNs
	delete(b.activeID, id)
	return nil
}

// TryFill applies a fill of qty at price against an active order, clipping
// to the remaining quantity. It rejects fills against inactive orders.
func (b *OrderBook) TryFill(id string, price, qty, feeUSD decimal.Decimal, nowNs int64, txSig string) (Fill, error) {
	o, ok := b.orders[id]
	if !ok || !o.Status.IsActive() {
		return Fill{}, fmt.Errorf("order %s is not active", id)
	}

	f := o.ApplyFill(price, qty, feeUSD, nowNs, txSig)
	if o.Status.IsTerminal() {
		delete(b.activeID, id)
	}
	return f, nil
}

// Get returns the order with id, or nil if unknown.
func (b *OrderBook) Get(id string) *Order {
	return b.orders[id]
}

// Active returns every currently active order, in no particular order.
func (b *OrderBook) Active() []*Order {
	out := make([]*Order, 0, len(b.activeID))
	for id := range b.activeID {
		out = append(out, b.orders[id])
	}
	return out
}

// ActiveForToken returns active orders for a single token.
func (b *OrderBook) ActiveForToken(token string) []*Order {
	var out []*Order
	for id := range b.activeID {
		if o := b.orders[id]; o.Token == token {
			out = append(out, o)
		}
	}
	return out
}

// peakEntry tracks the running high/low watermark a trailing-stop order
// needs to compute its trigger, keyed by order id.
type peakEntry struct {
	peak decimal.Decimal
}

// FillSimulator applies §4.3's type-specific fill rules on every price tick
// for orders resting in an OrderBook. It is the fill math behind
// execadapter.Simulated; the paper adapter does not use it.
type FillSimulator struct {
	book  *OrderBook
	peaks map[string]*peakEntry
}

// NewFillSimulator binds a simulator to the book whose active orders it
// will fill against.
func NewFillSimulator(book *OrderBook) *FillSimulator {
	return &FillSimulator{book: book, peaks: make(map[string]*peakEntry)}
}

// OnPriceTick evaluates every active order on token against price and
// returns the fills produced, in order-iteration order. feeBps is applied
// uniformly; each order's own SlippageBps controls its slippage.
func (s *FillSimulator) OnPriceTick(token string, price decimal.Decimal, feeBps int, nowNs int64) []Fill {
	var fills []Fill
	for _, o := range s.book.ActiveForToken(token) {
		if f, ok := s.evalOrder(o, price, feeBps, nowNs); ok {
			fills = append(fills, f)
		}
	}
	return fills
}

func (s *FillSimulator) evalOrder(o *Order, price decimal.Decimal, feeBps int, nowNs int64) (Fill, bool) {
	slip := decimal.NewFromInt(int64(o.SlippageBps)).Div(decimal.NewFromInt(10000))
	fee := price.Mul(o.RemainingQuantity()).Mul(decimal.NewFromInt(int64(feeBps))).Div(decimal.NewFromInt(10000))

	switch o.Type {
	case Market:
		fillPrice := applySlippage(price, slip, o.Side)
		f, err := s.book.TryFill(o.ID, fillPrice, o.RemainingQuantity(), fee, nowNs, "")
		return f, err == nil

	case Limit:
		if o.LimitPrice == nil {
			return Fill{}, false
		}
		triggered := (o.Side == Buy && price.LessThanOrEqual(*o.LimitPrice)) ||
			(o.Side == Sell && price.GreaterThanOrEqual(*o.LimitPrice))
		if !triggered {
			return Fill{}, false
		}
		f, err := s.book.TryFill(o.ID, *o.LimitPrice, o.RemainingQuantity(), fee, nowNs, "")
		return f, err == nil

	case Stop:
		if o.StopPrice == nil {
			return Fill{}, false
		}
		triggered := (o.Side == Buy && price.GreaterThanOrEqual(*o.StopPrice)) ||
			(o.Side == Sell && price.LessThanOrEqual(*o.StopPrice))
		if !triggered {
			return Fill{}, false
		}
		fillPrice := applySlippage(price, slip, o.Side)
		f, err := s.book.TryFill(o.ID, fillPrice, o.RemainingQuantity(), fee, nowNs, "")
		return f, err == nil

	case TrailingStop:
		if o.TrailOffset == nil {
			return Fill{}, false
		}
		pk, ok := s.peaks[o.ID]
		if !ok {
			pk = &peakEntry{peak: price}
			s.peaks[o.ID] = pk
		}

		var triggered bool
		if o.Side == Sell {
			if price.GreaterThan(pk.peak) {
				pk.peak = price
			}
			trigger := pk.peak.Mul(decimal.NewFromInt(1).Sub(*o.TrailOffset))
			triggered = price.LessThan(trigger)
		} else {
			if price.LessThan(pk.peak) {
				pk.peak = price
			}
			trigger := pk.peak.Mul(decimal.NewFromInt(1).Add(*o.TrailOffset))
			triggered = price.GreaterThan(trigger)
		}

		if !triggered {
			return Fill{}, false
		}
		fillPrice := applySlippage(price, slip, o.Side)
		f, err := s.book.TryFill(o.ID, fillPrice, o.RemainingQuantity(), fee, nowNs, "")
		if err == nil {
			delete(s.peaks, o.ID)
		}
		return f, err == nil

	default:
		// StopLimit, TWAP, and Iceberg are reserved; not yet implemented.
		return Fill{}, false
	}
}

func applySlippage(price, slip decimal.Decimal, side Side) decimal.Decimal {
	if side == Buy {
		return price.Mul(decimal.NewFromInt(1).Add(slip))
	}
	return price.Mul(decimal.NewFromInt(1).Sub(slip))
}
