// Package feed defines the event-producing contract shared by live data
// feeds (spec.md component table, "Data feed interface"). A feed owns a
// long-running polling or websocket loop that publishes price-update,
// graduation, dev-activity, and bonding-progress events onto the bus; it
// never consumes events itself.
package feed

import (
	"context"

	"github.com/web3guy0/gradsniper/bus"
)

// Feed is the contract every live market-data source implements. Connect
// starts the feed's background loop (as a cancellable goroutine) and
// returns once the initial connection is established; the loop itself
// keeps publishing until ctx is cancelled or Disconnect is called.
// Disconnect is idempotent and best-effort, per spec.md §4.2 step 6.
type Feed interface {
	Name() string
	Connect(ctx context.Context, b *bus.Bus) error
	Disconnect(ctx context.Context) error
}

// Status reports whether a feed is currently connected, for engine
// heartbeat/diagnostics surfaces.
type Status struct {
	Name      string
	Connected bool
	LastEventNs int64
}
