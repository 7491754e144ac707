// Copyright (c) 2026 BVK Chaitanya

// Package engine implements the rebalancing decision logic. The engine
// keeps a two-asset portfolio at an equal value split by maintaining a pair
// of bracketing limit orders around the balanced price: a sell above and a
// buy below, both carrying the price marker. When one side fills, the
// remaining order is canceled and a fresh bracket is placed around the fill
// price.
//
// The engine owns no state beyond the halt flag and the last observed own
// fill price. Everything else is derived on demand from host snapshots, so
// a restarted engine recovers simply by looking at the current wallet.
//
// Engine methods are not safe for concurrent use. The host's run loop is
// expected to deliver trade events, owns-changed events and manual commands
// one at a time.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/exchange"
	"github.com/bvk/balancebot/gobs"
	"github.com/bvk/balancebot/marker"
	"github.com/google/uuid"
)

// Recorder receives a copy of every fill and bracket decision for
// observability. Record failures are logged and otherwise ignored; the
// engine never depends on recorded state.
type Recorder interface {
	RecordFill(ctx context.Context, v *gobs.FillRecord) error
	RecordBracket(ctx context.Context, v *gobs.BracketRecord) error
}

type Engine struct {
	host exchange.Host

	calc *balance.Calculator

	mark *marker.Marker

	rec Recorder

	opts Options

	// halted disables automatic rebalancing between the Halt and
	// ResumeAndPlace commands.
	halted bool

	// lastTrade is the price of the last own marked fill, consumed by the
	// next reconciliation pass as the recentering price. Zero when no fill
	// was observed since the last bracket placement.
	lastTrade exchange.Price
}

// New creates a rebalancing engine on top of the given host. The recorder
// may be nil.
func New(host exchange.Host, calc *balance.Calculator, rec Recorder, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	mark, err := marker.New(opts.MarkerDigit)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		host: host,
		calc: calc,
		mark: mark,
		rec:  rec,
		opts: *opts,
	}
	return e, nil
}

// Close releases nothing; the engine has no state to flush. It exists so
// hosts can treat the engine like their other teardown hooks.
func (e *Engine) Close() error {
	return nil
}

// OnTrade handles a trade message from the exchange feed. Trades that are
// not flagged as our own, or whose price does not carry the marker (ex: a
// manually entered trade), are ignored.
func (e *Engine) OnTrade(ctx context.Context, t *exchange.Trade) error {
	if !t.Own {
		return nil
	}
	if !e.mark.Owns(t.Price) {
		slog.Info("ignoring own trade without price marker (manual trade?)", "price", e.calc.Quote(t.Price))
		return nil
	}

	verb := "bought"
	if t.Kind == exchange.KindBid {
		verb = "sold"
	}
	slog.Info("own bracket order filled", "verb", verb, "size", e.calc.Base(t.Size), "price", e.calc.Quote(t.Price))

	if e.rec != nil {
		rec := &gobs.FillRecord{
			Time:  t.Time.Time,
			Price: int64(t.Price),
			Size:  int64(t.Size),
			Kind:  string(t.Kind),
		}
		if err := e.rec.RecordFill(ctx, rec); err != nil {
			slog.Warn("could not record fill (ignored)", "err", err)
		}
	}

	e.lastTrade = t.Price
	return e.evaluate(ctx)
}

// OnOwnsChanged handles a change in the status or number of own open
// orders.
func (e *Engine) OnOwnsChanged(ctx context.Context) error {
	return e.evaluate(ctx)
}

// evaluate is one reconciliation pass: decide whether the bracket needs to
// be replaced and do it. Every entry point funnels here.
func (e *Engine) evaluate(ctx context.Context) error {
	if e.halted {
		return nil
	}

	snap := e.host.Snapshot()

	// Submissions are still in flight; wait for the next signal instead
	// of racing them with a cancel/replace.
	if snap.Submitted > 0 {
		return nil
	}

	open, pending := e.countOwns(snap)

	// Any pending order means the book is mid-change. Acting now could
	// place a second bracket on top of the first.
	if pending > 0 {
		return nil
	}

	// Two open orders: the bracket is intact. Zero: nothing of ours is
	// resting and a replacement is already on its way or halt canceled
	// it. Only exactly one means a side was filled.
	if open != 1 {
		return nil
	}

	center := e.lastTrade
	e.lastTrade = 0
	if center == 0 {
		// The fill message was missed or this pass was triggered by the
		// order list alone. The correct recentering price is recomputed
		// from the wallet: after a fill the balances are exactly what
		// the filled price made them.
		p, err := e.calc.BalancedPrice(snap.Wallet)
		if err != nil {
			return err
		}
		center = p
		slog.Warn("missed trade message; recentering at wallet-balanced price", "price", e.calc.Quote(center))
	}

	if _, err := e.cancelBracket(ctx, snap); err != nil {
		return err
	}
	return e.placeBracket(ctx, snap, center)
}

// countOwns partitions the marked own orders into open and
// pending-or-otherwise-non-terminal counts.
func (e *Engine) countOwns(snap *exchange.Snapshot) (open, pending int) {
	for _, o := range snap.Owns {
		if !e.mark.Owns(o.Price) {
			continue
		}
		if o.IsDone() {
			continue
		}
		if o.IsOpen() {
			open++
		} else {
			pending++
		}
	}
	return open, pending
}

// cancelBracket cancels all own orders carrying the marker and returns the
// number of cancellations issued. Unmarked orders are untouched.
func (e *Engine) cancelBracket(ctx context.Context, snap *exchange.Snapshot) (int, error) {
	var n int
	for _, o := range snap.Owns {
		if !e.mark.Owns(o.Price) {
			continue
		}
		if err := e.host.Cancel(ctx, o.ID); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		slog.Info("canceled rebalancing orders", "count", n)
	}
	return n, nil
}

// placeBracket places a sell above and a buy below the center price, each
// sized to restore balance if it fills.
func (e *Engine) placeBracket(ctx context.Context, snap *exchange.Snapshot, center exchange.Price) error {
	step := center * exchange.Price(e.opts.DistancePct) / 100
	sellPrice := e.mark.Mark(center + step)
	buyPrice := e.mark.Mark(center - step)

	sellDelta, err := e.calc.DeltaAt(sellPrice, snap.Wallet)
	if err != nil {
		return err
	}
	sellSize := -sellDelta

	buySize, err := e.calc.DeltaAt(buyPrice, snap.Wallet)
	if err != nil {
		return err
	}

	if sellSize < e.opts.MinSize {
		slog.Warn("sell quantity clamped up to the exchange minimum", "computed", e.calc.Base(sellSize), "minimum", e.calc.Base(e.opts.MinSize))
		sellSize = e.opts.MinSize
	}
	if buySize < e.opts.MinSize {
		slog.Warn("buy quantity clamped up to the exchange minimum", "computed", e.calc.Base(buySize), "minimum", e.calc.Base(e.opts.MinSize))
		buySize = e.opts.MinSize
	}

	slog.Info("placing new buy order", "size", e.calc.Base(buySize), "price", e.calc.Quote(buyPrice))
	if err := e.host.Buy(ctx, uuid.New().String(), buyPrice, buySize); err != nil {
		return err
	}

	slog.Info("placing new sell order", "size", e.calc.Base(sellSize), "price", e.calc.Quote(sellPrice))
	if err := e.host.Sell(ctx, uuid.New().String(), sellPrice, sellSize); err != nil {
		return err
	}

	if e.rec != nil {
		rec := &gobs.BracketRecord{
			Time:      time.Now(),
			Center:    int64(center),
			BuyPrice:  int64(buyPrice),
			BuySize:   int64(buySize),
			SellPrice: int64(sellPrice),
			SellSize:  int64(sellSize),
		}
		if err := e.rec.RecordBracket(ctx, rec); err != nil {
			slog.Warn("could not record bracket placement (ignored)", "err", err)
		}
	}
	return nil
}

func (e *Engine) halt(ctx context.Context) error {
	slog.Info("canceling all rebalancing orders and halting")
	e.halted = true
	_, err := e.cancelBracket(ctx, e.host.Snapshot())
	return err
}

func (e *Engine) resumeAndPlace(ctx context.Context) error {
	slog.Info("adding new initial rebalancing orders")
	e.halted = false
	snap := e.host.Snapshot()
	return e.placeBracket(ctx, snap, snap.Mid())
}

func (e *Engine) showStatus(ctx context.Context) error {
	s := e.Status()
	attrs := []any{
		"halted", s.Halted,
		"mid", e.calc.Quote(s.Mid),
		e.calc.BaseAsset() + "-difference", e.calc.Base(s.Delta),
	}
	if s.BalancedPrice != 0 {
		attrs = append(attrs, "balanced-price", e.calc.Quote(s.BalancedPrice))
	}
	for asset, v := range s.Wallet {
		attrs = append(attrs, "wallet-"+asset, v)
	}
	slog.Info("rebalancer status", attrs...)
	return nil
}

// marketRebalance restores balance immediately with a single market order
// and leaves the engine halted. Does nothing when the imbalance is below
// the minimum order size.
func (e *Engine) marketRebalance(ctx context.Context) error {
	snap := e.host.Snapshot()
	delta, err := e.calc.DeltaAt(snap.Mid(), snap.Wallet)
	if err != nil {
		return err
	}
	if delta.Abs() < e.opts.MinSize {
		slog.Info("imbalance is below the minimum order size; nothing to do", "delta", e.calc.Base(delta))
		return nil
	}

	e.halted = true
	if _, err := e.cancelBracket(ctx, snap); err != nil {
		return err
	}

	if delta > 0 {
		slog.Info("buying at market", "size", e.calc.Base(delta))
		return e.host.Buy(ctx, uuid.New().String(), 0, delta)
	}
	slog.Info("selling at market", "size", e.calc.Base(-delta))
	return e.host.Sell(ctx, uuid.New().String(), 0, -delta)
}
