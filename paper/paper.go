// Copyright (c) 2026 BVK Chaitanya

// Package paper implements an in-process exchange host with a simulated
// wallet and own-order book. Orders rest until a feed price crosses them,
// at which point the wallet is adjusted and a trade event is published.
// Submissions become visible only after the next price tick, which gives
// the engine the same acknowledgment latency a real exchange has.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bvk/balancebot/exchange"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
	"golang.org/x/time/rate"
)

type order struct {
	id     exchange.OrderID
	client string
	price  exchange.Price
	size   exchange.Size
	sell   bool
	status exchange.Status
}

type Trader struct {
	opts Options

	// limiter throttles order operations the way a real exchange client
	// would.
	limiter *rate.Limiter

	mu sync.Mutex

	wallet exchange.Wallet

	bid, ask exchange.Price

	orders map[exchange.OrderID]*order

	submitted int

	nextID int64

	tradesTopic *topic.Topic[*exchange.Trade]
	ownsTopic   *topic.Topic[exchange.OrderID]
}

var _ exchange.Host = &Trader{}

func New(wallet exchange.Wallet, opts *Options) (*Trader, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	w := make(exchange.Wallet, len(wallet))
	for k, v := range wallet {
		w[k] = v
	}
	t := &Trader{
		opts:        *opts,
		limiter:     rate.NewLimiter(25, 1),
		wallet:      w,
		orders:      make(map[exchange.OrderID]*order),
		tradesTopic: topic.New[*exchange.Trade](),
		ownsTopic:   topic.New[exchange.OrderID](),
	}
	return t, nil
}

// TradeUpdates subscribes to trade events.
func (t *Trader) TradeUpdates() (*topic.Receiver[*exchange.Trade], error) {
	return topic.Subscribe(t.tradesTopic, 0, true)
}

// OwnsUpdates subscribes to own-order-list change events.
func (t *Trader) OwnsUpdates() (*topic.Receiver[exchange.OrderID], error) {
	return topic.Subscribe(t.ownsTopic, 0, true)
}

func (t *Trader) Snapshot() *exchange.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := make(exchange.Wallet, len(t.wallet))
	for k, v := range t.wallet {
		w[k] = v
	}
	snap := &exchange.Snapshot{
		Wallet:    w,
		Bid:       t.bid,
		Ask:       t.ask,
		Submitted: t.submitted,
	}
	for _, o := range t.orders {
		snap.Owns = append(snap.Owns, exchange.OwnOrder{
			ID:     o.id,
			Price:  o.price,
			Status: o.status,
		})
	}
	return snap
}

func (t *Trader) Buy(ctx context.Context, clientOrderID string, price exchange.Price, size exchange.Size) error {
	return t.submit(ctx, clientOrderID, price, size, false)
}

func (t *Trader) Sell(ctx context.Context, clientOrderID string, price exchange.Price, size exchange.Size) error {
	return t.submit(ctx, clientOrderID, price, size, true)
}

func (t *Trader) submit(ctx context.Context, clientOrderID string, price exchange.Price, size exchange.Size, sell bool) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("order size must be positive")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Market order: execute immediately at the touch.
	if price == 0 {
		p := t.bid
		if !sell {
			p = t.ask
		}
		if p == 0 {
			return fmt.Errorf("no market price available yet")
		}
		f := t.fill(&order{price: p, size: size, sell: sell}, p)
		t.tradesTopic.Send(f)
		return nil
	}

	t.nextID++
	o := &order{
		id:     exchange.OrderID(fmt.Sprintf("paper-%06d", t.nextID)),
		client: clientOrderID,
		price:  price,
		size:   size,
		sell:   sell,
		status: exchange.StatusPending,
	}
	t.orders[o.id] = o
	t.submitted++
	return nil
}

func (t *Trader) Cancel(ctx context.Context, id exchange.OrderID) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	o, ok := t.orders[id]
	if ok {
		delete(t.orders, id)
	}
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown order %q", id)
	}
	t.ownsTopic.Send(o.id)
	return nil
}

func (t *Trader) Resubscribe(ctx context.Context) error {
	// Nothing to refresh; nudge listeners so they re-read the snapshot.
	t.ownsTopic.Send("")
	return nil
}

// Tick advances the simulated market to the given feed price. It
// acknowledges pending submissions, re-centers the touch and fills any
// crossed orders. Fills are returned and also published on the trades
// topic.
func (t *Trader) Tick(price exchange.Price) []*exchange.Trade {
	t.mu.Lock()

	t.bid = price - exchange.Price(t.opts.Spread)/2
	t.ask = price + exchange.Price(t.opts.Spread+1)/2

	changed := false
	for _, o := range t.orders {
		if o.status == exchange.StatusPending {
			o.status = exchange.StatusOpen
			changed = true
		}
	}
	if t.submitted > 0 {
		t.submitted = 0
		changed = true
	}

	var fills []*exchange.Trade
	for _, o := range t.orders {
		if o.status != exchange.StatusOpen {
			continue
		}
		if o.sell && price >= o.price {
			fills = append(fills, t.fill(o, o.price))
			delete(t.orders, o.id)
		} else if !o.sell && price <= o.price {
			fills = append(fills, t.fill(o, o.price))
			delete(t.orders, o.id)
		}
	}
	t.mu.Unlock()

	for _, f := range fills {
		t.tradesTopic.Send(f)
	}
	if changed || len(fills) > 0 {
		t.ownsTopic.Send("")
	}
	return fills
}

// fill applies a fill to the wallet and returns the trade event. Callers
// must hold the mutex.
func (t *Trader) fill(o *order, price exchange.Price) *exchange.Trade {
	size := decimal.NewFromInt(int64(o.size)).Div(decimal.NewFromInt(exchange.SizeScale))
	quote := decimal.NewFromInt(int64(price)).
		Div(decimal.NewFromInt(t.opts.PriceScale)).
		Mul(size).
		Mul(decimal.NewFromInt(t.opts.QuoteScale))
	value := quote.IntPart()

	kind := exchange.KindAsk
	if o.sell {
		kind = exchange.KindBid
		t.wallet[t.opts.BaseAsset] -= int64(o.size)
		t.wallet[t.opts.QuoteAsset] += value
	} else {
		t.wallet[t.opts.BaseAsset] += int64(o.size)
		t.wallet[t.opts.QuoteAsset] -= value
	}

	return &exchange.Trade{
		Time:  exchange.RemoteTime{Time: time.Now()},
		Price: price,
		Size:  o.size,
		Kind:  kind,
		Own:   true,
	}
}
