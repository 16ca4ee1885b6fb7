// Package telemetry records lightweight operational metrics — latency
// percentiles and event counters — and exports them as JSON-lines, one
// record per line. Per spec.md §1, telemetry *sink* wiring (Prometheus,
// StatsD, etc.) is out of scope; this package only produces the JSON-lines
// stream a sink would later tail.
package telemetry

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
)

// Record is one JSON-lines telemetry entry.
type Record struct {
	TS     int64          `json:"ts"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Recorder accumulates latency samples and counters, and streams Records
// to an underlying writer (typically an append-only file).
type Recorder struct {
	mu       sync.Mutex
	out      io.Writer
	enc      *json.Encoder
	counters map[string]int64
	samples  map[string][]float64
	now      func() time.Time
}

// New constructs a Recorder writing JSON-lines to out. now defaults to
// time.Now; tests may inject a fixed clock for deterministic records.
func New(out io.Writer) *Recorder {
	return &Recorder{
		out:      out,
		enc:      json.NewEncoder(out),
		counters: make(map[string]int64),
		samples:  make(map[string][]float64),
		now:      time.Now,
	}
}

// Attach subscribes the recorder to every bus event kind that carries a
// latency or count worth tracking: fills, rejects, and heartbeats.
func (r *Recorder) Attach(b *bus.Bus) {
	b.Subscribe(bus.KindOrderFilled, func(e bus.Event) error { r.Count("order_filled"); return nil })
	b.Subscribe(bus.KindOrderRejected, func(e bus.Event) error { r.Count("order_rejected"); return nil })
	b.Subscribe(bus.KindOrderPartialFill, func(e bus.Event) error { r.Count("order_partial_fill"); return nil })
	b.Subscribe(bus.KindError, func(e bus.Event) error { r.Count("handler_error"); return nil })
	b.Subscribe(bus.KindHeartbeat, func(e bus.Event) error { r.Count("heartbeat"); return nil })
}

// Count increments a named counter by one and appends a JSON-lines record.
func (r *Recorder) Count(name string) {
	r.mu.Lock()
	r.counters[name]++
	count := r.counters[name]
	r.mu.Unlock()

	r.write(Record{TS: r.now().UnixNano(), Type: "counter", Fields: map[string]any{"name": name, "value": count}})
}

// Observe records a latency sample (milliseconds) under name for later
// percentile computation, and appends a JSON-lines record.
func (r *Recorder) Observe(name string, durationMs float64) {
	r.mu.Lock()
	r.samples[name] = append(r.samples[name], durationMs)
	r.mu.Unlock()

	r.write(Record{TS: r.now().UnixNano(), Type: "latency", Fields: map[string]any{"name": name, "ms": durationMs}})
}

func (r *Recorder) write(rec Record) {
	r.mu.Lock()
	err := r.enc.Encode(rec)
	r.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("telemetry: failed to write record")
	}
}

// Percentiles reports p50/p90/p99 (linear-interpolated) over every sample
// recorded for name so far. Returns zeros if no samples exist.
func (r *Recorder) Percentiles(name string) (p50, p90, p99 float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := r.samples[name]
	if len(samples) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return percentile(sorted, 0.50), percentile(sorted, 0.90), percentile(sorted, 0.99)
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Counter returns the current value of a named counter.
func (r *Recorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}
