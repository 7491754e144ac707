// Copyright (c) 2026 BVK Chaitanya

package subcmds

import (
	"flag"
	"fmt"
	"path"
	"path/filepath"

	"github.com/bvk/balancebot/balance"
	"github.com/bvk/balancebot/engine"
	"github.com/bvk/balancebot/exchange"
	"github.com/bvk/balancebot/paper"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
)

// ProductFlags selects the traded pair and its fixed-point scales.
type ProductFlags struct {
	baseAsset  string
	quoteAsset string

	quoteScale int64
	priceScale int64
}

func (pf *ProductFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&pf.baseAsset, "base-asset", "BTC", "asset code for the base holding")
	fset.StringVar(&pf.quoteAsset, "quote-asset", "USD", "asset code for the quote holding")
	fset.Int64Var(&pf.quoteScale, "quote-scale", 100, "wallet units per whole quote currency")
	fset.Int64Var(&pf.priceScale, "price-scale", 1, "price ticks per whole quote currency")
}

func (pf *ProductFlags) BalanceOptions() *balance.Options {
	return &balance.Options{
		BaseAsset:  pf.baseAsset,
		QuoteAsset: pf.quoteAsset,
		QuoteScale: pf.quoteScale,
		PriceScale: pf.priceScale,
	}
}

func (pf *ProductFlags) PaperOptions() *paper.Options {
	return &paper.Options{
		BaseAsset:  pf.baseAsset,
		QuoteAsset: pf.quoteAsset,
		QuoteScale: pf.quoteScale,
		PriceScale: pf.priceScale,
	}
}

// TickPrice converts a decimal feed price into ticks.
func (pf *ProductFlags) TickPrice(p decimal.Decimal) exchange.Price {
	return exchange.Price(p.Mul(decimal.NewFromInt(pf.priceScale)).IntPart())
}

// StartingWallet builds a wallet from whole-unit balance strings.
func (pf *ProductFlags) StartingWallet(baseBalance, quoteBalance string) (exchange.Wallet, error) {
	base, err := ParseSize(baseBalance)
	if err != nil {
		return nil, fmt.Errorf("could not parse base balance %q: %w", baseBalance, err)
	}
	quote, err := decimal.NewFromString(quoteBalance)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote balance %q: %w", quoteBalance, err)
	}
	return exchange.Wallet{
		pf.baseAsset:  int64(base),
		pf.quoteAsset: quote.Mul(decimal.NewFromInt(pf.quoteScale)).IntPart(),
	}, nil
}

// EngineFlags configures the rebalancing engine.
type EngineFlags struct {
	distancePct int64
	markerDigit int
	minSize     string
}

func (ef *EngineFlags) SetFlags(fset *flag.FlagSet) {
	fset.Int64Var(&ef.distancePct, "distance-pct", 5, "percent distance of bracket orders from the center price")
	fset.IntVar(&ef.markerDigit, "marker-digit", 7, "lowest price digit marking our own orders")
	fset.StringVar(&ef.minSize, "min-size", "0.01", "minimum order quantity accepted by the exchange")
}

func (ef *EngineFlags) EngineOptions() (*engine.Options, error) {
	minSize, err := ParseSize(ef.minSize)
	if err != nil {
		return nil, fmt.Errorf("could not parse -min-size value %q: %w", ef.minSize, err)
	}
	return &engine.Options{
		DistancePct: ef.distancePct,
		MarkerDigit: ef.markerDigit,
		MinSize:     minSize,
	}, nil
}

// ParseSize converts a decimal base quantity like "0.01" into fixed-point
// exchange units.
func ParseSize(s string) (exchange.Size, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return exchange.Size(d.Mul(decimal.NewFromInt(exchange.SizeScale)).IntPart()), nil
}

func isGoodKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}

// openDatabase opens the badger backed key-value database under the data
// directory.
func openDatabase(dataDir string) (kv.Database, func() error, error) {
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the database: %w", err)
	}
	return kvbadger.New(bdb, isGoodKey), bdb.Close, nil
}
