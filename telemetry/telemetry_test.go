package telemetry

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func TestAttachCountsOrderFilledEvents(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	b := bus.New()
	r.Attach(b)

	b.Publish(bus.New(bus.KindOrderFilled, "test", nil))
	b.Publish(bus.New(bus.KindOrderFilled, "test", nil))
	b.Publish(bus.New(bus.KindOrderRejected, "test", nil))

	require.Equal(t, int64(2), r.Counter("order_filled"))
	require.Equal(t, int64(1), r.Counter("order_rejected"))
}

func TestObserveComputesPercentiles(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	for _, v := range []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} {
		r.Observe("fill_latency", v)
	}

	p50, p90, p99 := r.Percentiles("fill_latency")
	require.InDelta(t, 55, p50, 0.01)
	require.InDelta(t, 91, p90, 0.01)
	require.InDelta(t, 99.1, p99, 0.01)
}

func TestPercentilesZeroWithNoSamples(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	p50, p90, p99 := r.Percentiles("unknown")
	require.Zero(t, p50)
	require.Zero(t, p90)
	require.Zero(t, p99)
}

func TestWriteProducesOneJSONRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Count("a")
	r.Observe("b", 5)

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	require.Equal(t, 2, lines)
}
