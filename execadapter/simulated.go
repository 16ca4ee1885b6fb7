package execadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
	"github.com/web3guy0/gradsniper/types"
)

// feeBps equals amm.PumpSwapFeeBps (25). The simulator books it as a
// per-fill fee (Fill.FeeUSD); fill prices do not follow the constant-product
// curve.
const feeBps = 25

// Simulated is an execadapter.Adapter backed by the shared order book and
// fill simulator of spec.md §4.3, rather than the simplified buy/sell
// ledger of the paper adapter (§4.4). It is the venue a strategy reaches
// for when it needs more than a market order — limit, stop, and trailing-
// stop orders resting on the book and filling on subsequent price ticks.
type Simulated struct {
	mu   sync.Mutex
	name string
	bus  *bus.Bus

	book   *types.OrderBook
	sim    *types.FillSimulator
	prices map[string]decimal.Decimal

	connected bool
}

// NewSimulated constructs a simulated venue adapter.
func NewSimulated(name string) *Simulated {
	book := types.NewOrderBook()
	return &Simulated{
		name:   name,
		book:   book,
		sim:    types.NewFillSimulator(book),
		prices: make(map[string]decimal.Decimal),
	}
}

func (s *Simulated) Name() string { return s.name }

// Connect subscribes to price-update (to drive the fill simulator) and
// order-submitted (to admit new market orders to the book), then
// publishes adapter-connected.
func (s *Simulated) Connect(ctx context.Context, b *bus.Bus) error {
	s.mu.Lock()
	s.bus = b
	s.connected = true
	s.mu.Unlock()

	b.Subscribe(bus.KindPriceUpdate, s.onPriceUpdate)
	b.Subscribe(bus.KindOrderSubmitted, s.onOrderSubmitted)

	b.Publish(bus.New(bus.KindAdapterConnected, s.name, struct{ Name string }{s.name}))
	return nil
}

func (s *Simulated) onPriceUpdate(e bus.Event) error {
	p, ok := e.Payload.(bus.PriceUpdate)
	if !ok {
		return nil
	}

	s.mu.Lock()
	price := decimal.NewFromFloat(p.PriceUSD)
	s.prices[p.Token] = price
	fills := s.sim.OnPriceTick(p.Token, price, feeBps, e.TimestampNs)
	s.mu.Unlock()

	for _, f := range fills {
		o := s.book.Get(f.OrderID)
		if o == nil {
			continue
		}
		kind := bus.KindOrderFilled
		if o.Status == types.StatusPartiallyFilled {
			kind = bus.KindOrderPartialFill
		}
		s.bus.Publish(bus.New(kind, s.name, paper.FillPayload{
			Token:       o.Token,
			Side:        string(o.Side),
			Quantity:    f.Quantity,
			Price:       f.Price,
			TxSignature: f.TxSignature,
		}))
	}
	return nil
}

func (s *Simulated) onOrderSubmitted(e bus.Event) error {
	intent, ok := e.Payload.(bus.OrderIntent)
	if !ok {
		return nil
	}

	s.mu.Lock()
	price, haveSol := s.prices[intent.Token]
	s.mu.Unlock()

	side := types.Buy
	qty := decimal.NewFromFloat(intent.Amount)
	if intent.Side == "sell" {
		side = types.Sell
	} else if haveSol && !price.IsZero() {
		qty = decimal.NewFromFloat(intent.AmountUSD).Div(price)
	}

	order := types.NewOrder(intent.Token, side, types.Market, qty, e.TimestampNs)
	order.SlippageBps = intent.SlippageBps

	if errs := s.book.Submit(order, order.CreatedNs); len(errs) > 0 {
		s.bus.Publish(bus.New(bus.KindOrderRejected, s.name, bus.RejectReason{
			OrderID: order.ID,
			Token:   intent.Token,
			Reason:  fmt.Sprintf("validation failed: %v", errs),
		}))
		return nil
	}

	s.bus.Publish(bus.New(bus.KindOrderAccepted, s.name, struct{ OrderID, Token string }{order.ID, intent.Token}))
	return nil
}

// SubmitLimitOrder admits a resting limit order directly to the book,
// bypassing the bus's market-only OrderIntent shape. Strategies that need
// limit/stop/trailing-stop semantics call this instead of publishing
// order-submitted.
func (s *Simulated) SubmitLimitOrder(o *types.Order, nowNs int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Submit(o, nowNs)
}

// SubmitOrder implements the Adapter contract by admitting a market order
// directly to the book; it publishes nothing on the bus.
func (s *Simulated) SubmitOrder(ctx context.Context, intent bus.OrderIntent) (string, error) {
	s.mu.Lock()
	connected := s.connected
	price, haveSol := s.prices[intent.Token]
	s.mu.Unlock()

	if !connected {
		return "", ErrNotConnected()
	}

	side := types.Buy
	qty := decimal.NewFromFloat(intent.Amount)
	if intent.Side == "sell" {
		side = types.Sell
	} else if haveSol && !price.IsZero() {
		qty = decimal.NewFromFloat(intent.AmountUSD).Div(price)
	}

	order := types.NewOrder(intent.Token, side, types.Market, qty, types.NowNs())
	order.SlippageBps = intent.SlippageBps

	s.mu.Lock()
	errs := s.book.Submit(order, order.CreatedNs)
	s.mu.Unlock()
	if len(errs) > 0 {
		return "", &Error{Reason: ReasonSubmitFailed, Detail: fmt.Sprintf("%v", errs)}
	}
	return order.ID, nil
}

// Disconnect is idempotent.
func (s *Simulated) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	return nil
}

// OpenOrders returns every active order on the book, for diagnostics.
func (s *Simulated) OpenOrders() []*types.Order {
	return s.book.Active()
}
