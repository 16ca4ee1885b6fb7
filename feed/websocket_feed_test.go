package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/web3guy0/gradsniper/bus"
)

func TestDispatchPriceUpdatePublishesToBus(t *testing.T) {
	b := bus.New()
	f := NewWebSocketFeed("test-feed", "wss://example.invalid")

	var got bus.PriceUpdate
	b.Subscribe(bus.KindPriceUpdate, func(e bus.Event) error {
		got = e.Payload.(bus.PriceUpdate)
		return nil
	})

	f.dispatch(b, []byte(`{"type":"price-update","data":{"Token":"MINT","PriceUSD":1.5}}`))

	require.Equal(t, "MINT", got.Token)
	require.Equal(t, 1.5, got.PriceUSD)
}

func TestDispatchGraduationPublishesToBus(t *testing.T) {
	b := bus.New()
	f := NewWebSocketFeed("test-feed", "wss://example.invalid")

	var fired bool
	b.Subscribe(bus.KindGraduation, func(e bus.Event) error { fired = true; return nil })

	f.dispatch(b, []byte(`{"type":"graduation","data":{"Mint":"MINT"}}`))
	require.True(t, fired)
}

func TestDispatchUnknownTypeIsIgnored(t *testing.T) {
	b := bus.New()
	f := NewWebSocketFeed("test-feed", "wss://example.invalid")

	var fired bool
	b.Subscribe(bus.KindPriceUpdate, func(e bus.Event) error { fired = true; return nil })

	f.dispatch(b, []byte(`{"type":"unknown-thing","data":{}}`))
	require.False(t, fired)
}

func TestDispatchMalformedJSONIsIgnored(t *testing.T) {
	b := bus.New()
	f := NewWebSocketFeed("test-feed", "wss://example.invalid")
	require.NotPanics(t, func() { f.dispatch(b, []byte(`not json`)) })
}

func TestNewFeedStartsDisconnected(t *testing.T) {
	f := NewWebSocketFeed("test-feed", "wss://example.invalid")
	require.Equal(t, "test-feed", f.Name())
	require.False(t, f.Connected())
}
