// Package engine implements the lifecycle orchestrator of spec.md §4.2: it
// registers feeds, execution adapters, and strategies, connects them
// concurrently, drives a 100ms heartbeat loop, and runs the shutdown
// protocol. The same orchestrator drives live, paper, and backtest modes —
// strategy code never branches on mode.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/execadapter"
	"github.com/web3guy0/gradsniper/feed"
	"github.com/web3guy0/gradsniper/strategy"
)

// Mode selects which components the engine actually exercises against a
// live venue. Strategy logic never branches on Mode; only the wiring of
// adapters above the engine differs between modes.
type Mode string

const (
	ModeLive     Mode = "live"
	ModePaper    Mode = "paper"
	ModeBacktest Mode = "backtest"
)

func (m Mode) valid() bool {
	switch m {
	case ModeLive, ModePaper, ModeBacktest:
		return true
	default:
		return false
	}
}

const heartbeatInterval = 100 * time.Millisecond

// Config wires the orchestrator to its components. Strategies are started
// and stopped in the order given here; adapters and feeds are connected
// concurrently and disconnected in the order given.
type Config struct {
	Mode       Mode
	Bus        *bus.Bus
	Adapters   []execadapter.Adapter
	Feeds      []feed.Feed
	Strategies []strategy.Strategy
}

// Engine owns the lifetime of every component it was constructed with. It
// does not reach into a component's internal state — all communication
// flows over the bus.
type Engine struct {
	mode       Mode
	bus        *bus.Bus
	adapters   []execadapter.Adapter
	feeds      []feed.Feed
	strategies []strategy.Strategy

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New constructs an Engine. It fails at construction if cfg.Mode is not
// one of live/paper/backtest, per spec.md §4.2.
func New(cfg Config) (*Engine, error) {
	if !cfg.Mode.valid() {
		return nil, fmt.Errorf("engine: invalid mode %q", cfg.Mode)
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("engine: bus is required")
	}
	return &Engine{
		mode:       cfg.Mode,
		bus:        cfg.Bus,
		adapters:   cfg.Adapters,
		feeds:      cfg.Feeds,
		strategies: cfg.Strategies,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// ConnectResult records the outcome of connecting one component.
type ConnectResult struct {
	Name string
	Err  error
}

// Run executes the full startup sequence, blocks in the heartbeat loop
// until Shutdown is called or a termination signal arrives, then runs the
// shutdown protocol. It returns the concurrent-connect failures collected
// at startup, if any — a connect failure does not abort the others and
// does not prevent Run from entering the heartbeat loop.
func (e *Engine) Run(ctx context.Context) []ConnectResult {
	e.bus.Publish(bus.New(bus.KindEngineStart, "engine", struct{ Mode string }{string(e.mode)}))

	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	results := e.connectAll(sigCtx)

	for _, s := range e.strategies {
		if err := s.OnStart(e.bus); err != nil {
			log.Error().Err(err).Str("strategy", s.Name()).Msg("strategy on_start failed")
		}
	}

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.heartbeatLoop(sigCtx)
	e.shutdown(ctx)

	return results
}

// connectAll dials every adapter and feed concurrently and waits for all
// of them to finish, collecting failures without aborting the others.
func (e *Engine) connectAll(ctx context.Context) []ConnectResult {
	total := len(e.adapters) + len(e.feeds)
	if total == 0 {
		return nil
	}

	results := make([]ConnectResult, total)
	var wg sync.WaitGroup
	wg.Add(total)

	i := 0
	for _, a := range e.adapters {
		idx, adapter := i, a
		i++
		go func() {
			defer wg.Done()
			err := adapter.Connect(ctx, e.bus)
			results[idx] = ConnectResult{Name: adapter.Name(), Err: err}
			if err != nil {
				log.Error().Err(err).Str("adapter", adapter.Name()).Msg("adapter connect failed")
			}
		}()
	}
	for _, f := range e.feeds {
		idx, feed := i, f
		i++
		go func() {
			defer wg.Done()
			err := feed.Connect(ctx, e.bus)
			results[idx] = ConnectResult{Name: feed.Name(), Err: err}
			if err != nil {
				log.Error().Err(err).Str("feed", feed.Name()).Msg("feed connect failed")
			}
		}()
	}
	wg.Wait()
	return results
}

// heartbeatLoop cooperatively yields every 100ms, publishing a heartbeat
// carrying engine status, until ctx is cancelled or Shutdown is called.
func (e *Engine) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			e.bus.Publish(bus.New(bus.KindHeartbeat, "engine", bus.HeartbeatPayload{Status: "running"}))
		}
	}
}

// Shutdown requests the heartbeat loop to exit; Run then runs the shutdown
// protocol before returning. Safe to call more than once.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// shutdown calls each strategy's on_stop (errors logged, not propagated),
// disconnects each adapter and feed best-effort, then emits engine-stop.
func (e *Engine) shutdown(ctx context.Context) {
	for _, s := range e.strategies {
		if err := s.OnStop(); err != nil {
			log.Error().Err(err).Str("strategy", s.Name()).Msg("strategy on_stop failed")
		}
	}

	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, a := range e.adapters {
		if err := a.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Str("adapter", a.Name()).Msg("adapter disconnect failed")
		}
	}
	for _, f := range e.feeds {
		if err := f.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Str("feed", f.Name()).Msg("feed disconnect failed")
		}
	}

	e.bus.Publish(bus.New(bus.KindEngineStop, "engine", struct{ Mode string }{string(e.mode)}))
	close(e.done)
}

// Done returns a channel closed once the shutdown protocol completes.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Mode reports the engine's configured mode.
func (e *Engine) Mode() Mode {
	return e.mode
}
