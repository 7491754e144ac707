// Copyright (c) 2026 BVK Chaitanya

package paper

import (
	"context"
	"testing"

	"github.com/bvk/balancebot/exchange"
)

func newTestTrader(t *testing.T) *Trader {
	t.Helper()
	wallet := exchange.Wallet{
		"USD": 1000000,
		"BTC": exchange.SizeScale,
	}
	trader, err := New(wallet, nil)
	if err != nil {
		t.Fatal(err)
	}
	return trader
}

func TestLimitOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	trader := newTestTrader(t)

	trader.Tick(10000)
	if snap := trader.Snapshot(); snap.Bid != 9999 || snap.Ask != 10001 {
		t.Fatalf("wanted touch 9999/10001, got %d/%d", snap.Bid, snap.Ask)
	}

	if err := trader.Buy(ctx, "client-1", 9507, 1000000); err != nil {
		t.Fatal(err)
	}
	snap := trader.Snapshot()
	if snap.Submitted != 1 {
		t.Fatalf("wanted 1 in-flight submission, got %d", snap.Submitted)
	}
	if len(snap.Owns) != 1 || snap.Owns[0].Status != exchange.StatusPending {
		t.Fatalf("wanted one pending order, got %+v", snap.Owns)
	}

	// The next tick acknowledges the order but must not fill it above
	// its limit price.
	if fills := trader.Tick(10000); len(fills) != 0 {
		t.Fatalf("wanted no fills above the limit price, got %d", len(fills))
	}
	snap = trader.Snapshot()
	if snap.Submitted != 0 {
		t.Fatalf("wanted submissions acknowledged, got %d", snap.Submitted)
	}
	if len(snap.Owns) != 1 || !snap.Owns[0].IsOpen() {
		t.Fatalf("wanted one open order, got %+v", snap.Owns)
	}

	fills := trader.Tick(9507)
	if len(fills) != 1 {
		t.Fatalf("wanted one fill at the limit price, got %d", len(fills))
	}
	fill := fills[0]
	if !fill.Own || fill.Kind != exchange.KindAsk || fill.Price != 9507 || fill.Size != 1000000 {
		t.Fatalf("wanted own ask fill of 1000000 at 9507, got %+v", fill)
	}

	snap = trader.Snapshot()
	if len(snap.Owns) != 0 {
		t.Fatalf("wanted the filled order removed, got %+v", snap.Owns)
	}
	if got := snap.Wallet["BTC"]; got != exchange.SizeScale+1000000 {
		t.Fatalf("wanted BTC balance %d, got %d", exchange.SizeScale+1000000, got)
	}
	if got := snap.Wallet["USD"]; got != 1000000-9507 {
		t.Fatalf("wanted USD balance %d, got %d", 1000000-9507, got)
	}
}

func TestSellFill(t *testing.T) {
	ctx := context.Background()
	trader := newTestTrader(t)

	trader.Tick(10000)
	if err := trader.Sell(ctx, "client-1", 10507, 1000000); err != nil {
		t.Fatal(err)
	}
	trader.Tick(10200)

	fills := trader.Tick(10600)
	if len(fills) != 1 {
		t.Fatalf("wanted one fill past the limit price, got %d", len(fills))
	}
	if fill := fills[0]; fill.Kind != exchange.KindBid || fill.Price != 10507 {
		t.Fatalf("wanted own bid fill at 10507, got %+v", fill)
	}

	snap := trader.Snapshot()
	if got := snap.Wallet["BTC"]; got != exchange.SizeScale-1000000 {
		t.Fatalf("wanted BTC balance %d, got %d", exchange.SizeScale-1000000, got)
	}
	if got := snap.Wallet["USD"]; got != 1000000+10507 {
		t.Fatalf("wanted USD balance %d, got %d", 1000000+10507, got)
	}
}

func TestMarketOrder(t *testing.T) {
	ctx := context.Background()
	trader := newTestTrader(t)

	// No price has been seen yet.
	if err := trader.Buy(ctx, "client-1", 0, 1000000); err == nil {
		t.Fatalf("wanted non-nil error for a market order before any tick")
	}

	trader.Tick(10000)
	if err := trader.Buy(ctx, "client-2", 0, 1000000); err != nil {
		t.Fatal(err)
	}

	snap := trader.Snapshot()
	if len(snap.Owns) != 0 {
		t.Fatalf("wanted no resting order for a market buy, got %+v", snap.Owns)
	}
	if got := snap.Wallet["BTC"]; got != exchange.SizeScale+1000000 {
		t.Fatalf("wanted BTC balance %d, got %d", exchange.SizeScale+1000000, got)
	}
	// Market buys execute at the ask.
	if got := snap.Wallet["USD"]; got != 1000000-10001 {
		t.Fatalf("wanted USD balance %d, got %d", 1000000-10001, got)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	trader := newTestTrader(t)

	trader.Tick(10000)
	if err := trader.Buy(ctx, "client-1", 9507, 1000000); err != nil {
		t.Fatal(err)
	}

	snap := trader.Snapshot()
	if len(snap.Owns) != 1 {
		t.Fatalf("wanted one resting order, got %+v", snap.Owns)
	}
	if err := trader.Cancel(ctx, snap.Owns[0].ID); err != nil {
		t.Fatal(err)
	}
	if snap := trader.Snapshot(); len(snap.Owns) != 0 {
		t.Fatalf("wanted no orders after cancel, got %+v", snap.Owns)
	}

	if err := trader.Cancel(ctx, "no-such-order"); err == nil {
		t.Fatalf("wanted non-nil error for an unknown order id")
	}
}
