package types

// User is one telegram account known to the bot. A row is created on first
// inbound contact and never deleted; Active/Expiry mutate only through the
// subscription manager.
type User struct {
	ID             int64  `db:"id"`
	TelegramID     int64  `db:"telegram_id"`
	Username       string `db:"username"`
	Active         bool   `db:"active"`
	Expiry         int64  `db:"expiry"`
	NotifiedExpiry int64  `db:"notified_expiry"`
}

// Key is a single-use subscription code. It mutates exactly once, on
// redemption; UsedBy, ConsumedAt and Expiry are set together and never
// cleared.
type Key struct {
	ID           int64  `db:"id"`
	Code         string `db:"key_code"`
	DurationDays int    `db:"duration_days"`
	UsedBy       *int64 `db:"used_by"`
	CreatedAt    int64  `db:"created_at"`
	Expiry       *int64 `db:"expiry"`
	ConsumedAt   *int64 `db:"consumed_at"`
}

// Used reports whether the key has already been redeemed.
func (k Key) Used() bool {
	return k.UsedBy != nil
}

const (
	DirectionBuy  = "Buy"
	DirectionSell = "Sell"

	ModeAuto = "Auto"
)

// Signal is one generated trading recommendation. The same instance is sent
// to every recipient of a dispatcher tick.
type Signal struct {
	Symbol     string
	Direction  string
	Mode       string
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Confidence int
	Timestamp  string
}
