// Copyright (c) 2026 BVK Chaitanya

// Package exchange defines the narrow interface between the rebalancing
// engine and the exchange connectivity layer. The connectivity layer owns
// the wallet, the order book and the order transport; the engine only reads
// point-in-time snapshots and issues buy/sell/cancel requests.
package exchange

import (
	"context"
)

// SizeScale is the number of fixed-point units per whole base asset.
const SizeScale = 100_000_000

// Price is a fixed-point price in exchange ticks. Prices are never
// negative. The engine reads and writes only the lowest decimal digit for
// order marking, so meaningful prices have magnitude >= 10.
type Price int64

// Size is a fixed-point base-asset quantity in 1/SizeScale units. A Size is
// signed when it represents a delta (buy positive, sell negative) and
// non-negative when it represents an order size.
type Size int64

func (s Size) Abs() Size {
	if s < 0 {
		return -s
	}
	return s
}

// Wallet is a snapshot of account balances by asset code. Balances are
// fixed-point integers; the scale of each asset is configured per market.
// The engine never mutates a wallet.
type Wallet map[string]int64

// Snapshot is the engine's view of the exchange state as of the last event.
// Hosts build a fresh Snapshot for every event; the engine never reaches
// into live host state.
type Snapshot struct {
	Wallet Wallet

	// Best quotes from the order book.
	Bid, Ask Price

	// Owns lists all currently known own orders, marked or not.
	Owns []OwnOrder

	// Submitted counts orders sent to the exchange but not yet
	// acknowledged. The engine treats a non-zero count as a busy signal.
	Submitted int
}

// Mid returns the mid-quote price.
func (s *Snapshot) Mid() Price {
	return (s.Bid + s.Ask) / 2
}

// Host is the order transport offered by the connectivity layer. Buy and
// Sell with a zero price submit market orders. Calls are fire-and-forget
// from the engine's point of view; acknowledgment arrives later as an
// owns-changed event.
type Host interface {
	Snapshot() *Snapshot

	Buy(ctx context.Context, clientOrderID string, price Price, size Size) error
	Sell(ctx context.Context, clientOrderID string, price Price, size Size) error
	Cancel(ctx context.Context, id OrderID) error

	// Resubscribe forces the host to refresh order, wallet and history
	// state from the exchange.
	Resubscribe(ctx context.Context) error
}
