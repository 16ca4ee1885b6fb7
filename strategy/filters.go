package strategy

import "github.com/web3guy0/gradsniper/bus"

// FilterConfig parameterizes the graduation-sniper's hard filters.
type FilterConfig struct {
	MinLiquidityUSD  float64
	MaxMcapLiqRatio  float64
	MaxConcentration float64
	MinScore         int
	MaxPositions     int
}

// PassesFilters evaluates the graduation-sniper's hard filters, per
// spec.md §4.6. Any one rejection skips entry; the first failing reason is
// returned.
func PassesFilters(e bus.GraduationEvent, score int, alreadyHolding bool, activePositions int, cfg FilterConfig) (bool, string) {
	if e.LiquidityUSD > 0 && e.LiquidityUSD < cfg.MinLiquidityUSD {
		return false, "liquidity-below-minimum"
	}
	if e.LiquidityUSD > 0 && e.MarketCapUSD/e.LiquidityUSD > cfg.MaxMcapLiqRatio {
		return false, "mcap-liquidity-ratio-too-high"
	}
	if e.Top10ConcentPct > 0 && e.Top10ConcentPct > cfg.MaxConcentration {
		return false, "holder-concentration-too-high"
	}
	if score < cfg.MinScore {
		return false, "score-below-minimum"
	}
	if alreadyHolding {
		return false, "already-holding"
	}
	if activePositions >= cfg.MaxPositions {
		return false, "max-positions-reached"
	}
	if e.InitialPriceUSD <= 0 {
		return false, "invalid-initial-price"
	}
	return true, ""
}

// SizeMultiplier maps a graduation score to the position-size multiplier
// of spec.md §4.6 ("Position sizing by score").
func SizeMultiplier(score int) float64 {
	switch {
	case score >= 80:
		return 1.0
	case score >= 70:
		return 0.75
	case score >= 60:
		return 0.5
	default:
		return 0
	}
}
