// Package command parses inbound bot commands into tagged values, keeping
// the transport handlers free of string handling.
package command

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindRedeem
	KindStatus
	KindHelp
	KindCreateKey
	KindListKeys
)

type Command struct {
	Kind Kind
	// Code is set for KindRedeem; empty means the argument was missing.
	Code string
	// Days is set for KindCreateKey; 0 means missing or unparsable.
	Days int
}

// AdminOnly reports whether the command may only be issued by the
// administrator.
func (c Command) AdminOnly() bool {
	return c.Kind == KindCreateKey || c.Kind == KindListKeys
}

// Parse maps a message text to a Command. Non-command text and unrecognized
// commands both map to KindUnknown.
func Parse(text string) Command {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{Kind: KindUnknown}
	}

	cmd := fields[0]
	// Group chats suffix commands with the bot name.
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}

	switch strings.ToLower(cmd) {
	case "/start":
		return Command{Kind: KindStart}
	case "/help":
		return Command{Kind: KindHelp}
	case "/status":
		return Command{Kind: KindStatus}
	case "/redeem":
		c := Command{Kind: KindRedeem}
		if len(fields) >= 2 {
			c.Code = fields[1]
		}
		return c
	case "/createkey", "/create_key":
		c := Command{Kind: KindCreateKey}
		if len(fields) >= 2 {
			if days, err := strconv.Atoi(fields[1]); err == nil {
				c.Days = days
			}
		}
		return c
	case "/listkeys", "/list_keys":
		return Command{Kind: KindListKeys}
	default:
		return Command{Kind: KindUnknown}
	}
}
