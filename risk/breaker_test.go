package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestBreakerRoundTrip mirrors spec.md invariant #9: threshold=0.15,
// recovery=0.05, cooldown=300s, equity sequence
// {100, 110, 95 (dd=0.136 -> ACTIVE), 93 (dd=0.155 -> TRIPPED),
// after 301s: 105 (dd=0.045 -> ACTIVE)}.
func TestBreakerRoundTrip(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	b := NewDrawdownCircuitBreaker(0.15, 0.05, 300*time.Second, clock)

	require.Equal(t, BreakerActive, b.Observe(100))
	require.Equal(t, BreakerActive, b.Observe(110))
	require.Equal(t, BreakerActive, b.Observe(95))
	require.Equal(t, BreakerTripped, b.Observe(93))
	require.Equal(t, 1, b.TripCount())

	now = now.Add(301 * time.Second)
	require.Equal(t, BreakerActive, b.Observe(105))
}

func TestBreakerStaysTrippedBeforeCooldownElapses(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	b := NewDrawdownCircuitBreaker(0.15, 0.05, 300*time.Second, clock)

	b.Observe(100)
	require.Equal(t, BreakerTripped, b.Observe(80))

	now = now.Add(100 * time.Second)
	require.Equal(t, BreakerTripped, b.Observe(99))
}

func TestBreakerStaysTrippedIfDrawdownStillAboveRecovery(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	b := NewDrawdownCircuitBreaker(0.15, 0.05, 300*time.Second, clock)

	b.Observe(100)
	b.Observe(80)
	now = now.Add(400 * time.Second)
	require.Equal(t, BreakerTripped, b.Observe(90)) // dd = 0.10, above recovery 0.05
}

func TestNewDrawdownCircuitBreakerPanicsOnInvertedThresholds(t *testing.T) {
	require.Panics(t, func() {
		NewDrawdownCircuitBreaker(0.05, 0.15, time.Second, nil)
	})
}
