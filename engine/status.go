// Copyright (c) 2026 BVK Chaitanya

package engine

import (
	"github.com/bvk/balancebot/exchange"
)

// Status is a read-only report of the engine's view of the portfolio.
type Status struct {
	Halted bool

	// Mid is the current mid-quote price.
	Mid exchange.Price

	// Delta is the signed base quantity needed to rebalance at Mid (buy
	// positive, sell negative).
	Delta exchange.Size

	// BalancedPrice is the price at which the current balances are split
	// equally. Zero when the base balance is zero.
	BalancedPrice exchange.Price

	Wallet exchange.Wallet

	// Open and Pending count the marked own orders by status.
	Open    int
	Pending int
}

func (e *Engine) Status() *Status {
	snap := e.host.Snapshot()
	open, pending := e.countOwns(snap)
	s := &Status{
		Halted:  e.halted,
		Mid:     snap.Mid(),
		Wallet:  snap.Wallet,
		Open:    open,
		Pending: pending,
	}
	if delta, err := e.calc.DeltaAt(s.Mid, snap.Wallet); err == nil {
		s.Delta = delta
	}
	if p, err := e.calc.BalancedPrice(snap.Wallet); err == nil {
		s.BalancedPrice = p
	}
	return s
}
