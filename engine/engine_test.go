package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/execadapter"
	"github.com/web3guy0/gradsniper/feed"
	"github.com/web3guy0/gradsniper/strategy"
)

type fakeFeed struct {
	mu         sync.Mutex
	name       string
	connectErr error
	connected  bool
}

func (f *fakeFeed) Name() string { return f.name }
func (f *fakeFeed) Connect(ctx context.Context, b *bus.Bus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}
func (f *fakeFeed) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

type fakeAdapter struct {
	name string
}

func (a *fakeAdapter) Name() string { return a.name }
func (a *fakeAdapter) Connect(ctx context.Context, b *bus.Bus) error { return nil }
func (a *fakeAdapter) SubmitOrder(ctx context.Context, intent bus.OrderIntent) (string, error) {
	return "ext-1", nil
}
func (a *fakeAdapter) Disconnect(ctx context.Context) error { return nil }

type fakeStrategy struct {
	mu      sync.Mutex
	name    string
	stopped bool
	order   *[]string
}

func (s *fakeStrategy) Name() string { return s.name }
func (s *fakeStrategy) OnStart(b *bus.Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.order = append(*s.order, s.name)
	return nil
}
func (s *fakeStrategy) OnStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func TestNewRejectsInvalidMode(t *testing.T) {
	_, err := New(Config{Mode: "nonsense", Bus: bus.New()})
	require.Error(t, err)
}

func TestNewAcceptsEachValidMode(t *testing.T) {
	for _, m := range []Mode{ModeLive, ModePaper, ModeBacktest} {
		_, err := New(Config{Mode: m, Bus: bus.New()})
		require.NoError(t, err)
	}
}

func TestRunConnectsComponentsConcurrentlyAndCollectsFailures(t *testing.T) {
	b := bus.New()
	goodFeed := &fakeFeed{name: "good"}
	badFeed := &fakeFeed{name: "bad", connectErr: errors.New("dial failed")}
	adapter := &fakeAdapter{name: "venue"}

	e, err := New(Config{
		Mode:     ModePaper,
		Bus:      b,
		Feeds:    []feed.Feed{goodFeed, badFeed},
		Adapters: []execadapter.Adapter{adapter},
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		e.Shutdown()
	}()

	results := e.Run(context.Background())
	require.Len(t, results, 3)

	byName := map[string]error{}
	for _, r := range results {
		byName[r.Name] = r.Err
	}
	require.NoError(t, byName["good"])
	require.NoError(t, byName["venue"])
	require.Error(t, byName["bad"])

	<-e.Done()
	require.False(t, goodFeed.connected)
}

func TestRunCallsStrategyLifecycleInOrderAndEmitsEngineEvents(t *testing.T) {
	b := bus.New()
	var seen []bus.Kind
	b.Subscribe(bus.KindEngineStart, func(e bus.Event) error { seen = append(seen, e.Kind); return nil })
	b.Subscribe(bus.KindEngineStop, func(e bus.Event) error { seen = append(seen, e.Kind); return nil })

	var started []string
	s1 := &fakeStrategy{name: "first", order: &started}
	s2 := &fakeStrategy{name: "second", order: &started}

	e, err := New(Config{Mode: ModePaper, Bus: b, Strategies: []strategy.Strategy{s1, s2}})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Shutdown()
	}()

	e.Run(context.Background())
	<-e.Done()

	require.Equal(t, []string{"first", "second"}, started)
	require.True(t, s1.stopped)
	require.True(t, s2.stopped)
	require.Equal(t, []bus.Kind{bus.KindEngineStart, bus.KindEngineStop}, seen)
}

func TestHeartbeatPublishesWhileRunning(t *testing.T) {
	b := bus.New()
	var count int
	var mu sync.Mutex
	b.Subscribe(bus.KindHeartbeat, func(e bus.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	e, err := New(Config{Mode: ModePaper, Bus: b})
	require.NoError(t, err)

	go func() {
		time.Sleep(250 * time.Millisecond)
		e.Shutdown()
	}()

	e.Run(context.Background())
	<-e.Done()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, count, 1)
}
