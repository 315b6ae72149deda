package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"trading-signal-bot/internal/lib/sl"
)

type contactRegistrar interface {
	OnUserContact(telegramID int64, username string) error
}

type Middlewares struct {
	manager contactRegistrar
	log     *slog.Logger
}

func NewContactTracker(manager contactRegistrar, log *slog.Logger) *Middlewares {
	return &Middlewares{
		manager: manager,
		log:     log,
	}
}

// TrackUserMiddleware upserts the user row on every inbound contact so the
// last observed handle stays fresh. Routing proceeds even when the upsert
// fails.
func (m *Middlewares) TrackUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		from := update.Message.From
		if err := m.manager.OnUserContact(from.ID, from.Username); err != nil {
			m.log.Error("tracking user contact failed", "telegram_id", from.ID, sl.Err(err))
		}
		next(ctx, b, update)
	}
}
