package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BreakerState is the drawdown circuit breaker's two-state machine.
type BreakerState string

const (
	BreakerActive  BreakerState = "ACTIVE"
	BreakerTripped BreakerState = "TRIPPED"
)

// Clock abstracts wall-clock reads so tests can drive the breaker's
// cooldown deterministically (spec.md invariant #9 is stated against
// simulated elapsed time).
type Clock func() time.Time

// DrawdownCircuitBreaker trips when drawdown from peak equity reaches
// threshold, and recovers once drawdown falls to recovery AND cooldown has
// elapsed since the trip, per spec.md §4.8.
type DrawdownCircuitBreaker struct {
	mu sync.Mutex

	threshold float64
	recovery  float64
	cooldown  time.Duration
	clock     Clock

	state      BreakerState
	peak       float64
	trippedAt  time.Time
	tripCount  int
}

// NewDrawdownCircuitBreaker constructs a breaker. threshold must exceed
// recovery; the constructor panics otherwise, mirroring the teacher's
// fail-fast construction-time validation style.
func NewDrawdownCircuitBreaker(threshold, recovery float64, cooldown time.Duration, clock Clock) *DrawdownCircuitBreaker {
	if recovery >= threshold {
		panic(fmt.Sprintf("risk: recovery (%.4f) must be < threshold (%.4f)", recovery, threshold))
	}
	if clock == nil {
		clock = time.Now
	}
	return &DrawdownCircuitBreaker{
		threshold: threshold,
		recovery:  recovery,
		cooldown:  cooldown,
		clock:     clock,
		state:     BreakerActive,
	}
}

// Observe updates peak equity and drawdown for a new equity reading,
// applying the ACTIVE<->TRIPPED transition rules, and returns the
// resulting state.
func (b *DrawdownCircuitBreaker) Observe(equity float64) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if equity > b.peak {
		b.peak = equity
	}

	dd := 0.0
	if b.peak > 0 {
		dd = (b.peak - equity) / b.peak
	}

	switch b.state {
	case BreakerActive:
		if dd >= b.threshold {
			b.state = BreakerTripped
			b.trippedAt = b.clock()
			b.tripCount++
			log.Warn().Float64("drawdown", dd).Float64("threshold", b.threshold).Msg("drawdown circuit breaker tripped")
		}
	case BreakerTripped:
		elapsed := b.clock().Sub(b.trippedAt)
		if dd <= b.recovery && elapsed >= b.cooldown {
			b.state = BreakerActive
			log.Info().Float64("drawdown", dd).Msg("drawdown circuit breaker recovered")
		}
	}

	return b.state
}

// State returns the breaker's current state without taking a new reading.
func (b *DrawdownCircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// TripCount reports how many times the breaker has tripped.
func (b *DrawdownCircuitBreaker) TripCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripCount
}
