package types

import (
	"context"
	"time"
)

// Store is the durable persistence layer for users and keys. Every method is
// atomic with respect to the others; writes are serialized on a single
// writer.
type Store interface {
	UpsertUser(telegramID int64, username string) (*User, error)
	FindUser(telegramID int64) (*User, error)
	ActiveUsers() ([]User, error)
	// UsersExpiringWithin returns active users whose expiry falls inside
	// (now, now+windowSeconds] and who have not been notified for that
	// expiry yet.
	UsersExpiringWithin(now, windowSeconds int64) ([]User, error)
	// ExpiredUsers returns users still marked active whose expiry has
	// passed.
	ExpiredUsers(now int64) ([]User, error)
	DeactivateExpired(now int64) (int64, error)
	MarkPreExpiryNotified(telegramID, expiry int64) error

	CreateKey(code string, durationDays int, now int64) (*Key, error)
	ListKeys() ([]Key, error)
	// RedeemKey consumes an unused key and extends the user's subscription
	// from max(current expiry, now). Returns the granted expiry.
	RedeemKey(code string, telegramID, now int64) (int64, error)

	Close() error
}

// Sender pushes one text message to one telegram user. A failure wrapping
// ErrSendPermanent must not be retried.
type Sender interface {
	Send(ctx context.Context, telegramID int64, text string) error
}

// Clock abstracts wall time so subscription arithmetic is testable.
type Clock interface {
	// Now is the current time in seconds since epoch.
	Now() int64
	NowTime() time.Time
}

// PriceSource quotes the current price for a symbol. Failures surface as
// ErrMarketUnavailable.
type PriceSource interface {
	PriceOf(ctx context.Context, symbol string) (float64, error)
}

// DeliveryStore records permanent delivery failures per recipient. Recording
// never blocks or deactivates delivery.
type DeliveryStore interface {
	RecordPermanentFailure(telegramID, at int64) error
}
