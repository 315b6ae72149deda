// Package messages holds every user-visible string in one place.
package messages

import (
	"fmt"
	"strings"
	"time"

	"trading-signal-bot/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func expiryStamp(expiry int64) string {
	return time.Unix(expiry, 0).Format("2006-01-02 15:04:05")
}

func StartWelcome() string {
	return "👋 <b>Welcome!</b>\nI send trading signals to active subscribers.\n\n" +
		"🔑 Redeem an access key with /redeem &lt;code&gt;\n" +
		"ℹ️ /status shows your subscription, /help lists commands."
}

func Help() string {
	return "ℹ️ <b>Commands</b>\n" +
		"/redeem &lt;code&gt; — activate a subscription key\n" +
		"/status — show your subscription\n" +
		"/help — this message"
}

func ErrorDefault() string {
	return "🚫 <b>Something went wrong</b>\nPlease try again."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Unknown command</b>\nSee /help."
}

func RedeemUsage() string {
	return "🔑 <b>Usage:</b> /redeem &lt;code&gt;"
}

func KeyInvalid() string {
	return "🚫 <b>Invalid code</b>"
}

func KeyAlreadyUsed() string {
	return "⚠️ <b>This key has already been used</b>"
}

func Activated(expiry int64) string {
	return fmt.Sprintf("✅ <b>Subscription activated</b>\nActive until: %s", expiryStamp(expiry))
}

func StatusActive(expiry int64) string {
	return fmt.Sprintf("✅ <b>Subscription active</b>\nExpires: %s", expiryStamp(expiry))
}

func StatusInactive() string {
	return "💤 <b>No active subscription</b>\nRedeem a key with /redeem &lt;code&gt;."
}

func CreateKeyUsage() string {
	return "🛠 <b>Usage:</b> /createkey &lt;days&gt;"
}

func KeyCreated(code string, days int) string {
	return fmt.Sprintf("🔑 <b>Key created</b> (%d days)\n<code>%s</code>", days, Escape(code))
}

func KeyList(keys []types.Key) string {
	if len(keys) == 0 {
		return "🗒 <b>No keys issued yet</b>"
	}
	var b strings.Builder
	b.WriteString("🗒 <b>Keys</b>\n")
	for _, k := range keys {
		status := "unused"
		if k.Used() {
			status = fmt.Sprintf("used by %d", *k.UsedBy)
		}
		fmt.Fprintf(&b, "<code>%s</code> — %dd, %s\n", Escape(k.Code), k.DurationDays, status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func PreExpiryNotice(hoursRemaining int) string {
	return fmt.Sprintf("⏳ <b>Subscription expiring</b>\nAbout %d hour(s) left. Redeem a new key to extend it.", hoursRemaining)
}

func SubscriptionExpired() string {
	return "😔 <b>Subscription expired</b>\nRedeem a new key with /redeem &lt;code&gt; to keep receiving signals."
}

func SignalMessage(s *types.Signal) string {
	return fmt.Sprintf(
		"📊 <b>Signal #%d%%</b>\n"+
			"Symbol: %s\n"+
			"Type: %s\n"+
			"Entry: %.2f\n"+
			"SL: %.2f\n"+
			"TP: %.2f\n"+
			"Time: %s",
		s.Confidence, s.Symbol, s.Direction, s.Entry, s.StopLoss, s.TakeProfit, s.Timestamp)
}
