// Package telegram adapts the go-telegram bot client to the Sender
// contract, classifying delivery failures.
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"

	"trading-signal-bot/internal/messages"
	"trading-signal-bot/types"
)

type Sender struct {
	bot *bot.Bot
}

func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// Send delivers one HTML message. A forbidden response (user blocked the
// bot, account deleted) is wrapped as ErrSendPermanent; everything else is
// left transient for the caller's retry policy.
func (s *Sender) Send(ctx context.Context, telegramID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    telegramID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, bot.ErrorForbidden) {
		return fmt.Errorf("%w: %v", types.ErrSendPermanent, err)
	}
	return err
}
