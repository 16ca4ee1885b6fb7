// Package paper implements the last-observed-price fill simulator used in
// paper and backtest mode, per spec.md §4.4. It owns its balance/position
// ledger and communicates exclusively through the event bus.
package paper

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/gradsniper/bus"
)

// trade is one append-only entry in the adapter's local trade log.
type trade struct {
	Token     string
	Side      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	TimestampNs int64
}

// Adapter is the paper-execution simulator: a balance/position ledger that
// fills orders synchronously against the last price it has observed for a
// token. Mutable state (balance, positions, last prices) is owned
// exclusively here, per the no-shared-mutable-state rule in spec.md §5.
type Adapter struct {
	mu sync.Mutex

	bus *bus.Bus

	initialBalanceUSD decimal.Decimal
	balanceUSD        decimal.Decimal
	positions         map[string]decimal.Decimal // token -> quantity held
	lastPrice         map[string]decimal.Decimal // token -> last observed USD price

	trades []trade

	ordersFilled   int64
	ordersRejected int64
}

// New creates a paper adapter seeded with initialBalanceUSD and subscribes
// it to price-update and order-submitted events on b.
func New(b *bus.Bus, initialBalanceUSD decimal.Decimal) *Adapter {
	a := &Adapter{
		bus:               b,
		initialBalanceUSD: initialBalanceUSD,
		balanceUSD:        initialBalanceUSD,
		positions:         make(map[string]decimal.Decimal),
		lastPrice:         make(map[string]decimal.Decimal),
	}

	b.Subscribe(bus.KindPriceUpdate, a.onPriceUpdate)
	b.Subscribe(bus.KindOrderSubmitted, a.onOrderSubmitted)

	return a
}

func (a *Adapter) onPriceUpdate(e bus.Event) error {
	pu, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}
	a.mu.Lock()
	a.lastPrice[pu.Token] = decimal.NewFromFloat(pu.PriceUSD)
	a.mu.Unlock()
	return nil
}

func (a *Adapter) onOrderSubmitted(e bus.Event) error {
	intent, ok := e.Payload.(bus.OrderIntent)
	if !ok {
		return nil
	}

	switch intent.Side {
	case "buy":
		a.buy(intent, e.TimestampNs)
	case "sell":
		a.sell(intent, e.TimestampNs)
	}
	return nil
}

// SeedPrice sets the last-observed price for token without waiting for a
// price-update event — used by the backtest replayer to seed a token's
// price at the moment of graduation.
func (a *Adapter) SeedPrice(token string, priceUSD float64) {
	a.mu.Lock()
	a.lastPrice[token] = decimal.NewFromFloat(priceUSD)
	a.mu.Unlock()
}

func (a *Adapter) buy(intent bus.OrderIntent, nowNs int64) {
	a.mu.Lock()

	amountUSD := decimal.NewFromFloat(intent.AmountUSD)
	price, havePrice := a.lastPrice[intent.Token]

	if amountUSD.GreaterThan(a.balanceUSD) {
		a.ordersRejected++
		bal := a.balanceUSD
		a.mu.Unlock()
		log.Debug().Str("token", intent.Token).Str("amount", amountUSD.String()).Str("balance", bal.String()).Msg("paper buy rejected: insufficient balance")
		a.bus.Publish(bus.New(bus.KindOrderRejected, "paper", bus.RejectReason{Token: intent.Token, Reason: "insufficient-balance"}))
		return
	}

	var qty decimal.Decimal
	if havePrice && !price.IsZero() {
		qty = amountUSD.Div(price)
	} else {
		// Degraded fallback: price unknown, treat amount as token units.
		qty = amountUSD
		price = decimal.Zero
	}

	a.balanceUSD = a.balanceUSD.Sub(amountUSD)
	a.positions[intent.Token] = a.positions[intent.Token].Add(qty)
	a.trades = append(a.trades, trade{Token: intent.Token, Side: "buy", Quantity: qty, Price: price, TimestampNs: nowNs})
	a.ordersFilled++
	a.mu.Unlock()

	sig := fmt.Sprintf("paper-%d", nowNs)
	log.Info().Str("token", intent.Token).Str("qty", qty.String()).Str("price", price.String()).Msg("paper buy filled")
	a.bus.Publish(bus.New(bus.KindOrderFilled, "paper", fillPayload{Token: intent.Token, Side: "buy", Quantity: qty, Price: price, TxSignature: sig}))
}

func (a *Adapter) sell(intent bus.OrderIntent, nowNs int64) {
	a.mu.Lock()

	held := a.positions[intent.Token]
	qty := decimal.NewFromFloat(intent.Amount)
	if qty.GreaterThan(held) {
		qty = held
	}

	price, havePrice := a.lastPrice[intent.Token]
	var proceeds decimal.Decimal
	if havePrice {
		proceeds = qty.Mul(price)
	}

	a.balanceUSD = a.balanceUSD.Add(proceeds)
	remaining := held.Sub(qty)
	if remaining.LessThanOrEqual(decimal.Zero) {
		delete(a.positions, intent.Token)
	} else {
		a.positions[intent.Token] = remaining
	}
	a.trades = append(a.trades, trade{Token: intent.Token, Side: "sell", Quantity: qty, Price: price, TimestampNs: nowNs})
	a.ordersFilled++
	a.mu.Unlock()

	sig := fmt.Sprintf("paper-%d", nowNs)
	log.Info().Str("token", intent.Token).Str("qty", qty.String()).Str("proceeds", proceeds.String()).Msg("paper sell filled")
	a.bus.Publish(bus.New(bus.KindOrderFilled, "paper", fillPayload{Token: intent.Token, Side: "sell", Quantity: qty, Price: price, TxSignature: sig}))
}

// fillPayload is the KindOrderFilled payload published by this adapter.
type fillPayload struct {
	Token       string
	Side        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TxSignature string
}

// FillPayload re-exports fillPayload's type for other packages (strategy,
// journal) that need to type-assert KindOrderFilled events.
type FillPayload = fillPayload

// Balance returns the current simulated cash balance.
func (a *Adapter) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balanceUSD
}

// Position returns the quantity held of token (zero if none).
func (a *Adapter) Position(token string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[token]
}

// PnL returns realized, unrealized, and total P&L, per spec.md §4.4.
func (a *Adapter) PnL() (realized, unrealized, total decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	realized = a.balanceUSD.Sub(a.initialBalanceUSD)
	unrealized = decimal.Zero
	for token, qty := range a.positions {
		unrealized = unrealized.Add(qty.Mul(a.lastPrice[token]))
	}
	total = realized.Add(unrealized)
	return realized, unrealized, total
}

// Equity is cash balance plus the mark-to-market value of all positions.
func (a *Adapter) Equity() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	equity := a.balanceUSD
	for token, qty := range a.positions {
		equity = equity.Add(qty.Mul(a.lastPrice[token]))
	}
	return equity
}

// Counters reports adapter-level fill/reject totals.
func (a *Adapter) Counters() (filled, rejected int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ordersFilled, a.ordersRejected
}
