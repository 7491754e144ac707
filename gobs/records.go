// Copyright (c) 2026 BVK Chaitanya

// Package gobs holds the gob-encoded record types written to the journal
// database. Fields use primitive types so that encoded values stay readable
// across versions.
package gobs

import "time"

// FillRecord captures one own marked fill observed on the trade feed.
type FillRecord struct {
	Time time.Time

	// Price and Size are fixed-point values in exchange units.
	Price int64
	Size  int64

	// Kind is "bid" when our sell filled and "ask" when our buy filled.
	Kind string
}

// TelegramState remembers the chat ids learned from incoming messages.
type TelegramState struct {
	UserChatIDMap map[string]int64
}

// BracketRecord captures one bracket placement decision.
type BracketRecord struct {
	Time time.Time

	// Center is the recentering price the bracket was derived from.
	Center int64

	BuyPrice int64
	BuySize  int64

	SellPrice int64
	SellSize  int64
}
