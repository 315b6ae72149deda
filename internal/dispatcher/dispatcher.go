// Package dispatcher fans one generated signal out to every active
// subscriber.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"trading-signal-bot/internal/lib/sl"
	"trading-signal-bot/internal/messages"
	"trading-signal-bot/types"
)

const maxParallelSends = 8

var defaultBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

type recipientLister interface {
	ActiveUsers() ([]types.User, error)
}

type signalGenerator interface {
	Generate(ctx context.Context) (*types.Signal, error)
}

type Dispatcher struct {
	subs     recipientLister
	gen      signalGenerator
	sender   types.Sender
	delivery types.DeliveryStore // optional
	clock    types.Clock
	log      *slog.Logger
	backoff  []time.Duration
}

func New(subs recipientLister, gen signalGenerator, sender types.Sender, delivery types.DeliveryStore, clock types.Clock, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:     subs,
		gen:      gen,
		sender:   sender,
		delivery: delivery,
		clock:    clock,
		log:      log,
		backoff:  defaultBackoff,
	}
}

// Tick snapshots the recipients, generates exactly one signal and delivers
// it to each of them. An empty recipient set never invokes the generator; a
// market failure skips the whole tick without retrying inside it.
func (d *Dispatcher) Tick(ctx context.Context) {
	users, err := d.subs.ActiveUsers()
	if err != nil {
		d.log.Error("dispatch tick: listing recipients failed", sl.Err(err))
		return
	}
	if len(users) == 0 {
		d.log.Info("dispatch tick: no active subscribers")
		return
	}

	sig, err := d.gen.Generate(ctx)
	if err != nil {
		if errors.Is(err, types.ErrMarketUnavailable) {
			d.log.Warn("dispatch tick skipped: market unavailable", sl.Err(err))
		} else {
			d.log.Error("dispatch tick: signal generation failed", sl.Err(err))
		}
		return
	}

	// The payload is fixed before any send begins; fan-out never re-invokes
	// the generator.
	text := messages.SignalMessage(sig)
	d.log.Info("dispatching signal",
		"symbol", sig.Symbol, "direction", sig.Direction, "recipients", len(users))

	sem := make(chan struct{}, maxParallelSends)
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(telegramID int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			d.deliver(ctx, telegramID, text)
		}(u.TelegramID)
	}
	wg.Wait()
}

// deliver sends with bounded retries on transient errors. Permanent failures
// are recorded against the recipient and skipped; they never abort the rest
// of the fan-out.
func (d *Dispatcher) deliver(ctx context.Context, telegramID int64, text string) {
	for attempt := 0; ; attempt++ {
		err := d.sender.Send(ctx, telegramID, text)
		if err == nil {
			return
		}

		if errors.Is(err, types.ErrSendPermanent) {
			d.log.Warn("recipient unreachable", "telegram_id", telegramID, sl.Err(err))
			d.recordFailure(telegramID)
			return
		}

		if attempt >= len(d.backoff) {
			d.log.Warn("delivery dropped after retries", "telegram_id", telegramID, sl.Err(err))
			return
		}

		select {
		case <-time.After(d.backoff[attempt]):
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) recordFailure(telegramID int64) {
	if d.delivery == nil {
		return
	}
	if err := d.delivery.RecordPermanentFailure(telegramID, d.clock.Now()); err != nil {
		d.log.Warn("recording delivery failure failed", "telegram_id", telegramID, sl.Err(err))
	}
}
