package bus

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler is invoked synchronously for every Event of the Kind it is
// subscribed to. Handlers never suspend — they complete before Publish
// returns control to the next handler in the list. A returned error marks
// the dispatch as failed for that handler without aborting the others.
type Handler func(Event) error

// Bus is a single-threaded publish-subscribe dispatcher. Subscribe appends
// a handler to a kind's handler list (duplicates allowed); Publish invokes
// every handler currently subscribed to the event's kind, in subscription
// order, before returning. A handler publishing new events nests its
// dispatch depth-first inside the outer Publish call — this is required by
// adapters that fill orders inline on the price tick that triggered them.
//
// Bus is not meant for concurrent use from multiple goroutines; the engine
// owns one bus instance and drives all dispatch from its single event loop.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]Handler

	eventsProcessed int64
	handlerErrors   int64
	subscriptions   int64
}

// New creates an empty Bus ready to accept subscriptions.
func New() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers handler to run on every future Publish of kind.
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
	b.subscriptions++
}

// Unsubscribe removes the first handler subscribed to kind that compares
// equal (by function pointer identity) to handler. It is a no-op if no
// match is found.
func (b *Bus) Unsubscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[kind]
	target := reflect.ValueOf(handler).Pointer()
	for i, h := range list {
		if reflect.ValueOf(h).Pointer() == target {
			b.handlers[kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish synchronously invokes every handler subscribed to event.Kind, in
// subscription order, and returns only after all of them (and anything they
// publish, depth-first) have completed. A handler panic is isolated: it is
// counted, re-published as a KindError event (unless the failing handler was
// itself subscribed to KindError — this prevents infinite error loops), and
// does not prevent the remaining handlers from running.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	list := make([]Handler, len(b.handlers[event.Kind]))
	copy(list, b.handlers[event.Kind])
	b.eventsProcessed++
	b.mu.Unlock()

	for _, h := range list {
		b.invoke(h, event)
	}
}

func (b *Bus) invoke(h Handler, event Event) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
				log.Error().Str("kind", string(event.Kind)).Bytes("stack", debug.Stack()).Err(err).Msg("bus handler panicked")
			}
		}()
		err = h(event)
	}()

	if err == nil {
		return
	}

	b.mu.Lock()
	b.handlerErrors++
	b.mu.Unlock()

	log.Error().Str("kind", string(event.Kind)).Err(err).Msg("bus handler failed")

	if event.Kind != KindError {
		b.Publish(New(KindError, "bus", ErrorEvent{Source: string(event.Kind), Err: err}))
	}
}

// Stats reports cumulative bus activity.
type Stats struct {
	EventsProcessed int64
	HandlerErrors   int64
	Subscriptions   int64
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		EventsProcessed: b.eventsProcessed,
		HandlerErrors:   b.handlerErrors,
		Subscriptions:   b.subscriptions,
	}
}
