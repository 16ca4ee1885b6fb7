// Package notify sends trading alerts to Telegram. It subscribes directly
// to the bus — order fills, graduation signals, and errors — rather than
// being called imperatively by the engine, so it can be wired or omitted
// without touching strategy or execution code.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
	"github.com/web3guy0/gradsniper/paper"
)

// Telegram posts bus events to a single chat. A nil *Telegram is valid and
// every method on it is a no-op, so callers can wire it unconditionally
// when TELEGRAM_BOT_TOKEN is unset.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New constructs a Telegram notifier. Returns (nil, nil) when token is
// empty — the zero-value caller contract is "not configured," not an
// error.
func New(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: creating telegram client: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("telegram notifier initialized")
	return &Telegram{api: api, chatID: chatID}, nil
}

// Attach subscribes the notifier to the events worth alerting on. Safe to
// call on a nil *Telegram.
func (t *Telegram) Attach(b *bus.Bus) {
	if t == nil {
		return
	}
	b.Subscribe(bus.KindGraduation, t.onGraduation)
	b.Subscribe(bus.KindOrderFilled, t.onOrderFilled)
	b.Subscribe(bus.KindOrderRejected, t.onOrderRejected)
	b.Subscribe(bus.KindError, t.onError)
}

func (t *Telegram) onGraduation(e bus.Event) error {
	g, ok := e.Payload.(bus.GraduationEvent)
	if !ok {
		return nil
	}
	t.send(fmt.Sprintf("🎯 *GRADUATION*\n\n📊 %s (%s)\n💵 Initial price: $%.6f\n💧 SOL raised: %.2f\n👥 Holders: %d",
		g.Symbol, g.Mint, g.InitialPriceUSD, g.SOLRaised, g.HolderCount))
	return nil
}

func (t *Telegram) onOrderFilled(e bus.Event) error {
	f, ok := e.Payload.(paper.FillPayload)
	if !ok {
		return nil
	}
	emoji := "✅"
	if f.Side == "sell" {
		emoji = "📊"
	}
	t.send(fmt.Sprintf("%s *%s FILLED*\n\n📊 %s\n💵 Price: $%.6f\n📦 Quantity: %s",
		emoji, f.Side, f.Token, f.Price.InexactFloat64(), f.Quantity.StringFixed(4)))
	return nil
}

func (t *Telegram) onOrderRejected(e bus.Event) error {
	r, ok := e.Payload.(bus.RejectReason)
	if !ok {
		return nil
	}
	t.send(fmt.Sprintf("🛑 *ORDER REJECTED*\n\n📊 %s\n📝 %s", r.Token, r.Reason))
	return nil
}

func (t *Telegram) onError(e bus.Event) error {
	errEvt, ok := e.Payload.(bus.ErrorEvent)
	if !ok {
		return nil
	}
	t.send(fmt.Sprintf("⚠️ *ERROR* in %s\n\n%s", errEvt.Source, errEvt.Err))
	return nil
}

func (t *Telegram) send(text string) {
	if t == nil || t.api == nil {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.api.Send(msg); err != nil {
		log.Error().Err(err).Msg("notify: failed to send telegram message")
	}
}
