package risk

import (
	"sync"

	"github.com/shopspring/decimal"
)

// position is one open quantity-weighted-average-entry position tracked by
// ExposureTracker.
type position struct {
	Quantity decimal.Decimal
	AvgEntry decimal.Decimal
	Sector   string
}

// ExposureTracker owns the cash/position ledger used to compute per-token
// and total exposure fractions against equity, per spec.md §4.8.
type ExposureTracker struct {
	mu sync.Mutex

	cash      decimal.Decimal
	positions map[string]*position
	lastPrice map[string]decimal.Decimal
}

// NewExposureTracker constructs a tracker seeded with startingCash.
func NewExposureTracker(startingCash decimal.Decimal) *ExposureTracker {
	return &ExposureTracker{
		cash:      startingCash,
		positions: make(map[string]*position),
		lastPrice: make(map[string]decimal.Decimal),
	}
}

// OpenPosition blends qty @ price into token's existing position using a
// quantity-weighted average entry price, and debits cash by qty*price.
func (t *ExposureTracker) OpenPosition(token string, qty, price decimal.Decimal, sector string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cost := qty.Mul(price)
	t.cash = t.cash.Sub(cost)
	t.lastPrice[token] = price

	pos, ok := t.positions[token]
	if !ok {
		t.positions[token] = &position{Quantity: qty, AvgEntry: price, Sector: sector}
		return
	}

	totalQty := pos.Quantity.Add(qty)
	if totalQty.IsZero() {
		pos.Quantity = decimal.Zero
		return
	}
	blendedCost := pos.Quantity.Mul(pos.AvgEntry).Add(cost)
	pos.AvgEntry = blendedCost.Div(totalQty)
	pos.Quantity = totalQty
	if sector != "" {
		pos.Sector = sector
	}
}

// ClosePosition closes token's whole position at price, credits cash by
// quantity*price, and returns the realized P&L. With no position held it
// returns zero and changes nothing.
func (t *ExposureTracker) ClosePosition(token string, price decimal.Decimal) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positions[token]
	if !ok {
		return decimal.Zero
	}

	pnl := pos.Quantity.Mul(price.Sub(pos.AvgEntry))
	t.cash = t.cash.Add(pos.Quantity.Mul(price))
	t.lastPrice[token] = price
	delete(t.positions, token)
	return pnl
}

// UpdatePrice marks token to market without altering the position.
func (t *ExposureTracker) UpdatePrice(token string, price decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPrice[token] = price
}

// Equity is cash plus the mark-to-market value of every open position.
func (t *ExposureTracker) Equity() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.equityLocked()
}

func (t *ExposureTracker) equityLocked() decimal.Decimal {
	equity := t.cash
	for token, pos := range t.positions {
		equity = equity.Add(pos.Quantity.Mul(t.lastPrice[token]))
	}
	return equity
}

// TokenExposurePct returns token's current mark-to-market value as a
// fraction of equity (0 if no equity or no position).
func (t *ExposureTracker) TokenExposurePct(token string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	equity := t.equityLocked()
	if equity.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	pos, ok := t.positions[token]
	if !ok {
		return 0
	}
	value := pos.Quantity.Mul(t.lastPrice[token])
	f, _ := value.Div(equity).Float64()
	return f
}

// TotalExposurePct returns the fraction of equity held across all
// positions (0 if no equity).
func (t *ExposureTracker) TotalExposurePct() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	equity := t.equityLocked()
	if equity.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	total := decimal.Zero
	for token, pos := range t.positions {
		total = total.Add(pos.Quantity.Mul(t.lastPrice[token]))
	}
	f, _ := total.Div(equity).Float64()
	return f
}

// SectorCount returns the number of open positions in sector.
func (t *ExposureTracker) SectorCount(sector string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, pos := range t.positions {
		if pos.Sector == sector {
			n++
		}
	}
	return n
}

// PositionCount returns the number of currently open positions.
func (t *ExposureTracker) PositionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.positions)
}

// Cash returns the tracker's current cash balance.
func (t *ExposureTracker) Cash() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cash
}
