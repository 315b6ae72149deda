// Package subscription is the sole mutator of subscription state: key
// redemption, the pre-expiry notification pass and the expiry pass.
package subscription

import (
	"errors"
	"log/slog"

	"trading-signal-bot/internal/lib/sl"
	"trading-signal-bot/types"
)

// PreExpiryNotify delivers one expiry warning. hoursRemaining is rounded up
// so a subscription about to lapse still reads as "1 hour".
type PreExpiryNotify func(telegramID int64, hoursRemaining int) error

// ExpiredNotify delivers the one-shot "subscription expired" message.
type ExpiredNotify func(telegramID int64) error

type Manager struct {
	store types.Store
	clock types.Clock
	log   *slog.Logger
}

func NewManager(store types.Store, clock types.Clock, log *slog.Logger) *Manager {
	return &Manager{
		store: store,
		clock: clock,
		log:   log,
	}
}

// OnUserContact registers or refreshes the user row. Idempotent.
func (m *Manager) OnUserContact(telegramID int64, username string) error {
	_, err := m.store.UpsertUser(telegramID, username)
	return err
}

// Redeem consumes a key for the user and returns the granted expiry.
// Redeeming while active extends from the remaining expiry, never shortens.
func (m *Manager) Redeem(telegramID int64, code string) (int64, error) {
	expiry, err := m.store.RedeemKey(code, telegramID, m.clock.Now())
	if err != nil {
		return 0, err
	}
	m.log.Info("key redeemed", "telegram_id", telegramID, "expiry", expiry)
	return expiry, nil
}

// ActiveUsers returns the current recipient snapshot for the dispatcher.
func (m *Manager) ActiveUsers() ([]types.User, error) {
	return m.store.ActiveUsers()
}

// PreExpiryPass warns every active user whose expiry falls within the window
// and has not been warned for that expiry yet. A successful or permanently
// failed send marks the user so the warning is sent at most once per
// (user, expiry); a transient failure leaves the row unmarked for the next
// tick.
func (m *Manager) PreExpiryPass(windowSeconds int64, notify PreExpiryNotify) {
	now := m.clock.Now()

	users, err := m.store.UsersExpiringWithin(now, windowSeconds)
	if err != nil {
		m.log.Error("pre-expiry pass: select failed", sl.Err(err))
		return
	}

	for _, u := range users {
		hours := int((u.Expiry - now + 3599) / 3600)

		err := notify(u.TelegramID, hours)
		if err != nil && !errors.Is(err, types.ErrSendPermanent) {
			m.log.Warn("pre-expiry notice failed, will retry next tick",
				"telegram_id", u.TelegramID, sl.Err(err))
			continue
		}
		if err != nil {
			m.log.Warn("pre-expiry notice undeliverable", "telegram_id", u.TelegramID, sl.Err(err))
		}

		if err := m.store.MarkPreExpiryNotified(u.TelegramID, u.Expiry); err != nil {
			m.log.Error("pre-expiry pass: mark failed", "telegram_id", u.TelegramID, sl.Err(err))
		}
	}
}

// ExpirePass deactivates every user whose expiry has passed and attempts a
// one-shot expiry notification. Notification failures never block
// deactivation. Returns the number of deactivated users.
func (m *Manager) ExpirePass(notify ExpiredNotify) int64 {
	now := m.clock.Now()

	expired, err := m.store.ExpiredUsers(now)
	if err != nil {
		m.log.Error("expire pass: select failed", sl.Err(err))
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	count, err := m.store.DeactivateExpired(now)
	if err != nil {
		m.log.Error("expire pass: deactivate failed", sl.Err(err))
		return 0
	}
	m.log.Info("deactivated expired subscriptions", "count", count)

	for _, u := range expired {
		if err := notify(u.TelegramID); err != nil {
			m.log.Warn("expiry notice failed", "telegram_id", u.TelegramID, sl.Err(err))
		}
	}
	return count
}
