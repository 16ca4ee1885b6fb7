// Package risk implements the position sizer, portfolio limits, drawdown
// circuit breaker, and exposure tracker of spec.md §4.8.
package risk

import (
	"github.com/shopspring/decimal"
)

// SizingMethod selects the position-sizing algorithm.
type SizingMethod string

const (
	SizingFixed             SizingMethod = "FIXED"
	SizingPercentEquity     SizingMethod = "PERCENT_EQUITY"
	SizingKelly             SizingMethod = "KELLY"
	SizingVolatilityScaled  SizingMethod = "VOLATILITY_SCALED"
	defaultKellyFraction                = 0.5
)

// SizerConfig parameterizes PositionSizer.
type SizerConfig struct {
	Method         SizingMethod
	FixedUSD       decimal.Decimal
	Fraction       decimal.Decimal // used by PERCENT_EQUITY and VOLATILITY_SCALED
	KellyFraction  decimal.Decimal // defaults to 0.5 (half-Kelly) when zero
	TargetVol      decimal.Decimal // used by VOLATILITY_SCALED
	MaxPositionUSD decimal.Decimal
	MinPositionUSD decimal.Decimal
}

// Decision is the outcome of a sizing call: the final amount plus whether
// the raw algorithm output was capped.
type Decision struct {
	AmountUSD decimal.Decimal
	Capped    bool
}

// PositionSizer computes a position's dollar size from one of four
// algorithms, then applies the shared cap/floor rules.
type PositionSizer struct {
	cfg SizerConfig
}

// NewPositionSizer constructs a sizer, defaulting KellyFraction to half-Kelly
// when the caller leaves it unset.
func NewPositionSizer(cfg SizerConfig) *PositionSizer {
	if cfg.KellyFraction.IsZero() {
		cfg.KellyFraction = decimal.NewFromFloat(defaultKellyFraction)
	}
	return &PositionSizer{cfg: cfg}
}

// KellyInputs carries the trailing win-rate/avg-win/avg-loss stats the
// KELLY method needs.
type KellyInputs struct {
	WinRate decimal.Decimal // w, in [0,1]
	AvgWin  decimal.Decimal
	AvgLoss decimal.Decimal // positive magnitude
}

// Size computes the raw position amount for equity, then applies the
// shared max/min rules. vol and kelly are ignored by algorithms that don't
// need them.
func (s *PositionSizer) Size(equity decimal.Decimal, vol decimal.Decimal, kelly KellyInputs) Decision {
	raw := s.raw(equity, vol, kelly)
	return s.applyLimits(raw)
}

func (s *PositionSizer) raw(equity, vol decimal.Decimal, kelly KellyInputs) decimal.Decimal {
	switch s.cfg.Method {
	case SizingFixed:
		return s.cfg.FixedUSD

	case SizingPercentEquity:
		return equity.Mul(s.cfg.Fraction)

	case SizingKelly:
		if kelly.AvgLoss.IsZero() {
			return s.cfg.FixedUSD
		}
		r := kelly.AvgWin.Div(kelly.AvgLoss)
		one := decimal.NewFromInt(1)
		fStar := kelly.WinRate.Sub(one.Sub(kelly.WinRate).Div(r))
		if fStar.LessThan(decimal.Zero) {
			fStar = decimal.Zero
		}
		scaled := fStar.Mul(s.cfg.KellyFraction)
		return equity.Mul(scaled)

	case SizingVolatilityScaled:
		if vol.LessThanOrEqual(decimal.Zero) {
			return s.cfg.FixedUSD
		}
		ratio := s.cfg.TargetVol.Div(vol)
		one := decimal.NewFromInt(1)
		if ratio.GreaterThan(one) {
			ratio = one
		}
		return equity.Mul(ratio).Mul(s.cfg.Fraction)

	default:
		return s.cfg.FixedUSD
	}
}

func (s *PositionSizer) applyLimits(raw decimal.Decimal) Decision {
	amount := raw
	capped := false

	if !s.cfg.MaxPositionUSD.IsZero() && amount.GreaterThan(s.cfg.MaxPositionUSD) {
		amount = s.cfg.MaxPositionUSD
		capped = true
	}

	if amount.LessThan(s.cfg.MinPositionUSD) {
		amount = decimal.Zero
	}

	return Decision{AmountUSD: amount, Capped: capped}
}
