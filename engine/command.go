// Copyright (c) 2026 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
)

// Command is a manual instruction to the engine. The set is closed; Do
// dispatches with an exhaustive switch so that adding or removing a command
// is a compile-time-checked change.
type Command int

const (
	// Halt cancels the standing bracket orders and disables automatic
	// rebalancing until ResumeAndPlace.
	Halt Command = iota

	// ResumeAndPlace enables rebalancing and places the initial bracket
	// around the current mid-quote. The portfolio should already be
	// balanced when this is issued; that precondition is not checked.
	ResumeAndPlace

	// Resubscribe asks the host to refresh order, wallet and history
	// state from the exchange.
	Resubscribe

	// ShowStatus logs the signed quantity needed to rebalance at the
	// current mid-quote and the would-be balanced price. Read-only.
	ShowStatus

	// MarketRebalance cancels the brackets, halts, and submits a single
	// market order sized to the current imbalance. Skipped entirely when
	// the imbalance is below the minimum order size.
	MarketRebalance
)

func (c Command) String() string {
	switch c {
	case Halt:
		return "halt"
	case ResumeAndPlace:
		return "resume-and-place"
	case Resubscribe:
		return "resubscribe"
	case ShowStatus:
		return "show-status"
	case MarketRebalance:
		return "market-rebalance"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Do executes a manual command.
func (e *Engine) Do(ctx context.Context, c Command) error {
	switch c {
	case Halt:
		return e.halt(ctx)
	case ResumeAndPlace:
		return e.resumeAndPlace(ctx)
	case Resubscribe:
		return e.host.Resubscribe(ctx)
	case ShowStatus:
		return e.showStatus(ctx)
	case MarketRebalance:
		return e.marketRebalance(ctx)
	}
	return fmt.Errorf("unknown command %v", c)
}
