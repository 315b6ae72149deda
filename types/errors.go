package types

import "errors"

var (
	// ErrKeyNotFound is returned when redeeming a code that was never issued.
	ErrKeyNotFound = errors.New("key not found")
	// ErrKeyAlreadyUsed is returned when redeeming a code that has been
	// consumed; exactly one redemption of any code ever succeeds.
	ErrKeyAlreadyUsed = errors.New("key already used")
	// ErrDuplicateKey is returned when creating a key whose code exists.
	ErrDuplicateKey = errors.New("duplicate key code")
	// ErrInvalidDuration is returned when creating a key with a non-positive
	// duration.
	ErrInvalidDuration = errors.New("invalid key duration")
	// ErrUserNotFound is returned by lookups of unknown telegram ids.
	ErrUserNotFound = errors.New("user not found")

	// ErrMarketUnavailable means the price source could not produce a quote.
	// The dispatcher skips the whole tick on it.
	ErrMarketUnavailable = errors.New("market unavailable")

	// ErrSendPermanent marks a delivery failure that retrying cannot fix
	// (user blocked the bot, account deleted). Any other send error is
	// treated as transient.
	ErrSendPermanent = errors.New("permanent send failure")
)
