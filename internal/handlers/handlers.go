// Package handlers routes inbound telegram commands to the subscription
// core.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"trading-signal-bot/internal/command"
	"trading-signal-bot/internal/lib/sl"
	"trading-signal-bot/internal/messages"
	"trading-signal-bot/types"
)

type subscriptionManager interface {
	Redeem(telegramID int64, code string) (int64, error)
}

type Handlers struct {
	manager subscriptionManager
	store   types.Store
	sender  types.Sender
	clock   types.Clock
	log     *slog.Logger
	adminID int64
}

func NewHandlers(manager subscriptionManager, store types.Store, sender types.Sender, clock types.Clock, log *slog.Logger, adminID int64) *Handlers {
	return &Handlers{
		manager: manager,
		store:   store,
		sender:  sender,
		clock:   clock,
		log:     log,
		adminID: adminID,
	}
}

// MainHandler is the single inbound entry point registered on the bot.
func (h *Handlers) MainHandler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	cmd := command.Parse(update.Message.Text)

	// Admin commands from anyone else return silently.
	if cmd.AdminOnly() && userID != h.adminID {
		return
	}

	switch cmd.Kind {
	case command.KindStart:
		h.reply(ctx, userID, messages.StartWelcome())
	case command.KindHelp:
		h.reply(ctx, userID, messages.Help())
	case command.KindStatus:
		h.handleStatus(ctx, userID)
	case command.KindRedeem:
		h.handleRedeem(ctx, userID, cmd.Code)
	case command.KindCreateKey:
		h.handleCreateKey(ctx, userID, cmd.Days)
	case command.KindListKeys:
		h.handleListKeys(ctx, userID)
	default:
		h.reply(ctx, userID, messages.ErrorUnknownCommand())
	}
}

func (h *Handlers) handleStatus(ctx context.Context, userID int64) {
	u, err := h.store.FindUser(userID)
	if err != nil {
		if !errors.Is(err, types.ErrUserNotFound) {
			h.log.Error("status lookup failed", "telegram_id", userID, sl.Err(err))
		}
		h.reply(ctx, userID, messages.StatusInactive())
		return
	}
	if u.Active && u.Expiry > h.clock.Now() {
		h.reply(ctx, userID, messages.StatusActive(u.Expiry))
		return
	}
	h.reply(ctx, userID, messages.StatusInactive())
}

func (h *Handlers) handleRedeem(ctx context.Context, userID int64, code string) {
	if code == "" {
		h.reply(ctx, userID, messages.RedeemUsage())
		return
	}

	expiry, err := h.manager.Redeem(userID, code)
	switch {
	case err == nil:
		h.reply(ctx, userID, messages.Activated(expiry))
	case errors.Is(err, types.ErrKeyAlreadyUsed):
		h.reply(ctx, userID, messages.KeyAlreadyUsed())
	case errors.Is(err, types.ErrKeyNotFound):
		h.reply(ctx, userID, messages.KeyInvalid())
	default:
		h.log.Error("redeem failed", "telegram_id", userID, sl.Err(err))
		h.reply(ctx, userID, messages.ErrorDefault())
	}
}

func (h *Handlers) handleCreateKey(ctx context.Context, userID int64, days int) {
	if days <= 0 {
		h.reply(ctx, userID, messages.CreateKeyUsage())
		return
	}

	k, err := h.store.CreateKey(generateKeyCode(), days, h.clock.Now())
	if err != nil {
		h.log.Error("creating key failed", sl.Err(err))
		h.reply(ctx, userID, messages.ErrorDefault())
		return
	}
	h.log.Info("key created", "days", days)
	h.reply(ctx, userID, messages.KeyCreated(k.Code, k.DurationDays))
}

func (h *Handlers) handleListKeys(ctx context.Context, userID int64) {
	keys, err := h.store.ListKeys()
	if err != nil {
		h.log.Error("listing keys failed", sl.Err(err))
		h.reply(ctx, userID, messages.ErrorDefault())
		return
	}
	h.reply(ctx, userID, messages.KeyList(keys))
}

func (h *Handlers) reply(ctx context.Context, userID int64, text string) {
	if err := h.sender.Send(ctx, userID, text); err != nil {
		h.log.Warn("reply failed", "telegram_id", userID, sl.Err(err))
	}
}

// generateKeyCode renders a 128-bit random token as lowercase hex.
func generateKeyCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
