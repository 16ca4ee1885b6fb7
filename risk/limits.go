package risk

import "fmt"

// LimitsConfig holds the portfolio-wide caps PortfolioLimits enforces.
type LimitsConfig struct {
	MaxPositions          int
	MaxTokenExposurePct    float64
	MaxTotalExposurePct    float64
	MaxSectorExposurePct   float64
	MaxCorrelatedPositions int
}

// PortfolioLimits checks a prospective new position against portfolio-wide
// caps, per spec.md §4.8. Checks run in a fixed order and the first
// violated check is the one reported.
type PortfolioLimits struct {
	cfg LimitsConfig
}

// NewPortfolioLimits constructs a limits checker.
func NewPortfolioLimits(cfg LimitsConfig) *PortfolioLimits {
	return &PortfolioLimits{cfg: cfg}
}

// Check evaluates whether a new position is allowed given the current
// portfolio state. currentPositions is the count of open positions;
// tokenExposurePct/totalExposurePct are the position's exposure as a
// fraction of equity if admitted; sectorCount is the number of already-open
// positions in the same sector.
func (l *PortfolioLimits) Check(currentPositions int, tokenExposurePct, totalExposurePct float64, sector string, sectorCount int) (allowed bool, reason string) {
	if currentPositions >= l.cfg.MaxPositions {
		return false, fmt.Sprintf("max_positions: %d >= %d", currentPositions, l.cfg.MaxPositions)
	}
	if tokenExposurePct > l.cfg.MaxTokenExposurePct {
		return false, fmt.Sprintf("token_exposure: %.4f > %.4f", tokenExposurePct, l.cfg.MaxTokenExposurePct)
	}
	if totalExposurePct > l.cfg.MaxTotalExposurePct {
		return false, fmt.Sprintf("total_exposure: %.4f > %.4f", totalExposurePct, l.cfg.MaxTotalExposurePct)
	}
	if l.cfg.MaxSectorExposurePct > 0 && totalExposurePct > l.cfg.MaxSectorExposurePct && sector != "" {
		return false, fmt.Sprintf("sector_exposure[%s]: %.4f > %.4f", sector, totalExposurePct, l.cfg.MaxSectorExposurePct)
	}
	if sectorCount >= l.cfg.MaxCorrelatedPositions {
		return false, fmt.Sprintf("correlated_positions[%s]: %d >= %d", sector, sectorCount, l.cfg.MaxCorrelatedPositions)
	}
	return true, ""
}
