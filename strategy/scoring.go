package strategy

import "github.com/web3guy0/gradsniper/bus"

// Score computes the graduation-sniper's [0,100] integer score for a
// graduation candidate, per spec.md §4.6. It starts at 50 and adds five
// signed, independently clamped components; zero-valued optional fields on
// the event are treated as "no signal," never as "signal of zero."
func Score(e bus.GraduationEvent) int {
	score := 50
	score += momentumComponent(e)
	score += qualityComponent(e)
	score += liquidityComponent(e)
	score += activityComponent(e)
	score += clamp(e.FreshnessScoreHint, -10, 10)

	return clamp(score, 0, 100)
}

func momentumComponent(e bus.GraduationEvent) int {
	c := 0

	if e.Buys1h+e.Sells1h > 0 {
		ratio := float64(e.Buys1h) / float64(e.Buys1h+e.Sells1h)
		switch {
		case ratio > 0.65:
			c += 15
		case ratio > 0.55:
			c += 8
		case ratio < 0.35:
			c -= 15
		case ratio < 0.45:
			c -= 5
		}
	}

	switch {
	case e.PriceChange5mPct > 15:
		c += 10
	case e.PriceChange5mPct > 0:
		c += 3
	case e.PriceChange5mPct < -15:
		c -= 10
	case e.PriceChange5mPct < 0:
		c -= 3
	}

	switch {
	case e.PriceChange1hPct > 50:
		c += 5
	case e.PriceChange1hPct < -30:
		c -= 10
	}

	return clamp(c, -30, 30)
}

func qualityComponent(e bus.GraduationEvent) int {
	c := 0

	if e.Top10ConcentPct > 0 {
		switch {
		case e.Top10ConcentPct > 80:
			c -= 25
		case e.Top10ConcentPct > 50:
			c -= 10
		case e.Top10ConcentPct < 30:
			c += 5
		}
	}

	if e.DevHoldingsPct > 0 {
		switch {
		case e.DevHoldingsPct > 10:
			c -= 15
		case e.DevHoldingsPct > 5:
			c -= 5
		}
	} else {
		c += 5
	}

	if e.SniperCount > 0 {
		switch {
		case e.SniperCount > 50:
			c -= 10
		case e.SniperCount > 20:
			c -= 5
		case e.SniperCount < 5:
			c += 3
		}
	}

	if e.HolderCount > 500 {
		c += 5
	} else if e.HolderCount > 0 && e.HolderCount < 50 {
		c -= 5
	}

	return clamp(c, -30, 30)
}

func liquidityComponent(e bus.GraduationEvent) int {
	c := 0

	if e.LiquidityUSD == 0 {
		c -= 15
	} else {
		if e.MarketCapUSD > 0 {
			ratio := e.MarketCapUSD / e.LiquidityUSD
			switch {
			case ratio > 200:
				c -= 25
			case ratio > 100:
				c -= 15
			case ratio > 50:
				c -= 5
			case ratio < 10:
				c += 5
			}
		}

		switch {
		case e.LiquidityUSD < 3000:
			c -= 10
		case e.LiquidityUSD > 50000:
			c += 5
		}
	}

	return clamp(c, -25, 25)
}

func activityComponent(e bus.GraduationEvent) int {
	c := 0
	switch {
	case e.Txns24h > 10000:
		c += 10
	case e.Txns24h > 5000:
		c += 5
	case e.Txns24h > 1000:
		c += 2
	case e.Txns24h > 0 && e.Txns24h < 200:
		c -= 10
	}
	return clamp(c, -15, 15)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
