package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
)

const (
	reconnectDelay = 5 * time.Second
	pingInterval   = 30 * time.Second
)

// rawMessage is the wire shape this feed expects from a graduation/price
// streaming endpoint: a discriminated union keyed by "type", mirroring the
// bus's own event taxonomy so decoding is a thin pass-through.
type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WebSocketFeed streams price-update and graduation events from a single
// websocket endpoint, reconnecting with a fixed backoff on drop. It is the
// shape a live Solana graduation/price source would take; this package
// ships only the reconnect/dispatch skeleton, not venue-specific framing
// (spec.md §1 excludes wire-level venue client detail).
type WebSocketFeed struct {
	mu sync.Mutex

	name string
	url  string

	conn      *websocket.Conn
	connected bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWebSocketFeed creates a feed that will dial url once Connect is called.
func NewWebSocketFeed(name, url string) *WebSocketFeed {
	return &WebSocketFeed{name: name, url: url}
}

func (f *WebSocketFeed) Name() string { return f.name }

// Connect dials the feed's endpoint once synchronously (surfacing a
// connect-failure if that fails) and then hands off to a background
// reconnect loop bound to ctx, per spec.md §9's "coroutine fan-out for
// feeds" design note.
func (f *WebSocketFeed) Connect(ctx context.Context, b *bus.Bus) error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		log.Warn().Str("feed", f.name).Err(err).Msg("feed connect failed")
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.conn = conn
	f.connected = true
	f.cancel = cancel
	f.done = make(chan struct{})
	f.mu.Unlock()

	go f.run(loopCtx, b)
	return nil
}

func (f *WebSocketFeed) run(ctx context.Context, b *bus.Bus) {
	defer close(f.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f.mu.Lock()
		conn := f.conn
		f.mu.Unlock()

		if conn == nil {
			if !f.reconnect(ctx) {
				return
			}
			continue
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Warn().Str("feed", f.name).Err(err).Msg("feed read failed, reconnecting")
			f.mu.Lock()
			f.conn = nil
			f.connected = false
			f.mu.Unlock()
			continue
		}

		f.dispatch(b, raw)
	}
}

func (f *WebSocketFeed) reconnect(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(reconnectDelay):
	}

	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		log.Warn().Str("feed", f.name).Err(err).Msg("feed reconnect failed")
		return true
	}

	f.mu.Lock()
	f.conn = conn
	f.connected = true
	f.mu.Unlock()
	return true
}

func (f *WebSocketFeed) dispatch(b *bus.Bus, raw []byte) {
	var msg rawMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Str("feed", f.name).Err(err).Msg("feed message decode failed")
		return
	}

	switch msg.Type {
	case "price-update":
		var p bus.PriceUpdate
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		b.Publish(bus.New(bus.KindPriceUpdate, f.name, p))
	case "graduation":
		var g bus.GraduationEvent
		if err := json.Unmarshal(msg.Data, &g); err != nil {
			return
		}
		b.Publish(bus.New(bus.KindGraduation, f.name, g))
	case "dev-activity":
		var d bus.DevActivityEvent
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		b.Publish(bus.New(bus.KindDevActivity, f.name, d))
	case "bonding-progress":
		var p bus.BondingProgressEvent
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		b.Publish(bus.New(bus.KindBondingProgress, f.name, p))
	default:
		log.Debug().Str("feed", f.name).Str("type", msg.Type).Msg("unrecognized feed message type")
	}
}

// Disconnect cancels the background loop and closes the connection.
// Idempotent: calling it more than once, or before Connect, is a no-op.
func (f *WebSocketFeed) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	cancel := f.cancel
	conn := f.conn
	done := f.done
	f.connected = false
	f.conn = nil
	f.cancel = nil
	f.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return nil
}

// Connected reports the feed's current connection state.
func (f *WebSocketFeed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
