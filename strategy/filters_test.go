package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func baseFilterConfig() FilterConfig {
	return FilterConfig{MinLiquidityUSD: 5000, MaxMcapLiqRatio: 50, MaxConcentration: 60, MinScore: 55, MaxPositions: 5}
}

func TestPassesFiltersAcceptsGoodCandidate(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 10000, MarketCapUSD: 100000, Top10ConcentPct: 20, InitialPriceUSD: 0.001}
	ok, reason := PassesFilters(e, 70, false, 1, baseFilterConfig())
	require.True(t, ok)
	require.Empty(t, reason)
}

func TestPassesFiltersRejectsLowLiquidity(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 1000, InitialPriceUSD: 0.001}
	ok, reason := PassesFilters(e, 70, false, 1, baseFilterConfig())
	require.False(t, ok)
	require.Equal(t, "liquidity-below-minimum", reason)
}

func TestPassesFiltersIgnoresZeroLiquidityAsUnknown(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 0, InitialPriceUSD: 0.001}
	ok, _ := PassesFilters(e, 70, false, 1, baseFilterConfig())
	require.True(t, ok)
}

func TestPassesFiltersRejectsAlreadyHolding(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 10000, InitialPriceUSD: 0.001}
	ok, reason := PassesFilters(e, 70, true, 1, baseFilterConfig())
	require.False(t, ok)
	require.Equal(t, "already-holding", reason)
}

func TestPassesFiltersRejectsMaxPositions(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 10000, InitialPriceUSD: 0.001}
	ok, reason := PassesFilters(e, 70, false, 5, baseFilterConfig())
	require.False(t, ok)
	require.Equal(t, "max-positions-reached", reason)
}

func TestPassesFiltersRejectsLowScore(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 10000, InitialPriceUSD: 0.001}
	ok, reason := PassesFilters(e, 40, false, 1, baseFilterConfig())
	require.False(t, ok)
	require.Equal(t, "score-below-minimum", reason)
}

func TestPassesFiltersRejectsZeroInitialPrice(t *testing.T) {
	e := bus.GraduationEvent{LiquidityUSD: 10000}
	ok, reason := PassesFilters(e, 70, false, 1, baseFilterConfig())
	require.False(t, ok)
	require.Equal(t, "invalid-initial-price", reason)
}

func TestSizeMultiplierBands(t *testing.T) {
	require.Equal(t, 1.0, SizeMultiplier(85))
	require.Equal(t, 0.75, SizeMultiplier(72))
	require.Equal(t, 0.5, SizeMultiplier(61))
	require.Equal(t, 0.0, SizeMultiplier(30))
}
