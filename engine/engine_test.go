// Copyright (c) 2026 BVK Chaitanya

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/exchange"
)

type fakeOrder struct {
	price exchange.Price
	size  exchange.Size
	sell  bool
}

type fakeHost struct {
	snap exchange.Snapshot

	orders  []fakeOrder
	cancels []exchange.OrderID

	resubscribes int
}

func (f *fakeHost) Snapshot() *exchange.Snapshot {
	snap := f.snap
	return &snap
}

func (f *fakeHost) Buy(ctx context.Context, clientOrderID string, price exchange.Price, size exchange.Size) error {
	f.orders = append(f.orders, fakeOrder{price: price, size: size})
	return nil
}

func (f *fakeHost) Sell(ctx context.Context, clientOrderID string, price exchange.Price, size exchange.Size) error {
	f.orders = append(f.orders, fakeOrder{price: price, size: size, sell: true})
	return nil
}

func (f *fakeHost) Cancel(ctx context.Context, id exchange.OrderID) error {
	f.cancels = append(f.cancels, id)
	return nil
}

func (f *fakeHost) Resubscribe(ctx context.Context) error {
	f.resubscribes++
	return nil
}

func balancedWallet() exchange.Wallet {
	// $10000.00 and 1 BTC, balanced at price 10000.
	return exchange.Wallet{
		"USD": 1000000,
		"BTC": exchange.SizeScale,
	}
}

func newTestEngine(t *testing.T, host exchange.Host, opts *Options) *Engine {
	t.Helper()
	calc, err := balance.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	eng, err := New(host, calc, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestResumeAndPlace(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    9999,
			Ask:    10001,
		},
	}
	eng := newTestEngine(t, host, nil)

	if err := eng.Do(ctx, ResumeAndPlace); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 2 {
		t.Fatalf("wanted 2 orders, got %d", len(host.orders))
	}

	// The buy goes in first, 5% below the mid with the marker digit.
	buy, sell := host.orders[0], host.orders[1]
	if buy.sell {
		t.Fatalf("wanted the buy order to be placed first")
	}
	if buy.price != 9507 {
		t.Fatalf("wanted buy price 9507, got %d", buy.price)
	}
	if buy.size != 2592826 {
		t.Fatalf("wanted buy size 2592826, got %d", buy.size)
	}
	if !sell.sell {
		t.Fatalf("wanted the second order to be a sell")
	}
	if sell.price != 10507 {
		t.Fatalf("wanted sell price 10507, got %d", sell.price)
	}
	if sell.size != 2412677 {
		t.Fatalf("wanted sell size 2412677, got %d", sell.size)
	}
}

func TestEvaluateLeavesIntactBracketAlone(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    9999,
			Ask:    10001,
			Owns: []exchange.OwnOrder{
				{ID: "1", Price: 9507, Status: exchange.StatusOpen},
				{ID: "2", Price: 10507, Status: exchange.StatusOpen},
			},
		},
	}
	eng := newTestEngine(t, host, nil)

	for i := 0; i < 3; i++ {
		if err := eng.OnOwnsChanged(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no actions with an intact bracket, got %d orders %d cancels", len(host.orders), len(host.cancels))
	}
}

func TestEvaluateWaitsForAcks(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet:    balancedWallet(),
			Owns:      []exchange.OwnOrder{{ID: "1", Price: 9507, Status: exchange.StatusOpen}},
			Submitted: 1,
		},
	}
	eng := newTestEngine(t, host, nil)

	if err := eng.OnOwnsChanged(ctx); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no actions with submissions in flight")
	}

	host.snap.Submitted = 0
	host.snap.Owns = append(host.snap.Owns, exchange.OwnOrder{ID: "2", Price: 10507, Status: exchange.StatusPending})
	if err := eng.OnOwnsChanged(ctx); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no actions with a pending order")
	}
}

func TestRecenterAtFillPrice(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    10506,
			Ask:    10508,
			Owns:   []exchange.OwnOrder{{ID: "leftover", Price: 9507, Status: exchange.StatusOpen}},
		},
	}
	eng := newTestEngine(t, host, nil)

	trade := &exchange.Trade{
		Time:  exchange.RemoteTime{Time: time.Now()},
		Price: 10507,
		Size:  2412677,
		Kind:  exchange.KindBid,
		Own:   true,
	}
	if err := eng.OnTrade(ctx, trade); err != nil {
		t.Fatal(err)
	}

	if len(host.cancels) != 1 || host.cancels[0] != "leftover" {
		t.Fatalf("wanted the leftover order canceled, got %v", host.cancels)
	}
	if len(host.orders) != 2 {
		t.Fatalf("wanted a fresh bracket, got %d orders", len(host.orders))
	}

	// The new bracket centers on the fill price 10507, not the mid-quote.
	if buy := host.orders[0]; buy.price != 9987 {
		t.Fatalf("wanted buy price 9987, got %d", buy.price)
	}
	if sell := host.orders[1]; sell.price != 11037 {
		t.Fatalf("wanted sell price 11037, got %d", sell.price)
	}
}

func TestRecenterAtBalancedPrice(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    11999,
			Ask:    12001,
			Owns:   []exchange.OwnOrder{{ID: "leftover", Price: 10507, Status: exchange.StatusOpen}},
		},
	}
	eng := newTestEngine(t, host, nil)

	// No trade message was seen; the recentering price is derived from
	// the wallet, not from the (much higher) mid-quote.
	if err := eng.OnOwnsChanged(ctx); err != nil {
		t.Fatal(err)
	}

	if len(host.cancels) != 1 {
		t.Fatalf("wanted the leftover order canceled, got %v", host.cancels)
	}
	if len(host.orders) != 2 {
		t.Fatalf("wanted a fresh bracket, got %d orders", len(host.orders))
	}
	if buy := host.orders[0]; buy.price != 9507 {
		t.Fatalf("wanted buy price 9507, got %d", buy.price)
	}
	if sell := host.orders[1]; sell.price != 10507 {
		t.Fatalf("wanted sell price 10507, got %d", sell.price)
	}
}

func TestHaltStopsRebalancing(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Owns: []exchange.OwnOrder{
				{ID: "1", Price: 9507, Status: exchange.StatusOpen},
				{ID: "2", Price: 10507, Status: exchange.StatusOpen},
			},
		},
	}
	eng := newTestEngine(t, host, nil)

	if err := eng.Do(ctx, Halt); err != nil {
		t.Fatal(err)
	}
	if len(host.cancels) != 2 {
		t.Fatalf("wanted both bracket orders canceled, got %v", host.cancels)
	}

	host.snap.Owns = nil
	host.cancels = nil
	if err := eng.OnOwnsChanged(ctx); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 {
		t.Fatalf("wanted no orders while halted, got %d", len(host.orders))
	}
}

func TestClampToMinimumSize(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    9999,
			Ask:    10001,
		},
	}
	opts := &Options{MinSize: exchange.SizeScale}
	eng := newTestEngine(t, host, opts)

	if err := eng.Do(ctx, ResumeAndPlace); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 2 {
		t.Fatalf("wanted 2 orders, got %d", len(host.orders))
	}
	for _, o := range host.orders {
		if o.size != exchange.SizeScale {
			t.Fatalf("wanted size clamped to %d, got %d", exchange.SizeScale, o.size)
		}
	}
}

func TestMarketRebalance(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			// $20000.00 against 1 BTC at price 10000: half of the
			// excess must be bought.
			Wallet: exchange.Wallet{
				"USD": 2000000,
				"BTC": exchange.SizeScale,
			},
			Bid:  9999,
			Ask:  10001,
			Owns: []exchange.OwnOrder{{ID: "1", Price: 10507, Status: exchange.StatusOpen}},
		},
	}
	eng := newTestEngine(t, host, nil)

	if err := eng.Do(ctx, MarketRebalance); err != nil {
		t.Fatal(err)
	}
	if len(host.cancels) != 1 {
		t.Fatalf("wanted the standing order canceled, got %v", host.cancels)
	}
	if len(host.orders) != 1 {
		t.Fatalf("wanted a single market order, got %d", len(host.orders))
	}
	if o := host.orders[0]; o.sell || o.price != 0 || o.size != exchange.SizeScale/2 {
		t.Fatalf("wanted a market buy of half a unit, got %+v", o)
	}

	// Rebalancing leaves the engine halted.
	host.snap.Owns = nil
	host.orders = nil
	if err := eng.OnOwnsChanged(ctx); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 {
		t.Fatalf("wanted no automatic orders after a market rebalance")
	}
}

func TestMarketRebalanceSkipsDust(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Bid:    9999,
			Ask:    10001,
		},
	}
	eng := newTestEngine(t, host, nil)

	if err := eng.Do(ctx, MarketRebalance); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no actions for a below-minimum imbalance")
	}
}

func TestOnTradeFiltering(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{
		snap: exchange.Snapshot{
			Wallet: balancedWallet(),
			Owns:   []exchange.OwnOrder{{ID: "1", Price: 9507, Status: exchange.StatusOpen}},
		},
	}
	eng := newTestEngine(t, host, nil)

	// Trades from other participants are ignored.
	other := &exchange.Trade{Price: 10507, Size: 100, Kind: exchange.KindBid}
	if err := eng.OnTrade(ctx, other); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no reaction to another participant's trade")
	}

	// Own trades without the marker were placed manually and are also
	// ignored.
	manual := &exchange.Trade{Price: 10500, Size: 100, Kind: exchange.KindBid, Own: true}
	if err := eng.OnTrade(ctx, manual); err != nil {
		t.Fatal(err)
	}
	if len(host.orders) != 0 || len(host.cancels) != 0 {
		t.Fatalf("wanted no reaction to a manual unmarked trade")
	}
}
