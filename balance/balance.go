// Copyright (c) 2026 BVK Chaitanya

// Package balance computes the buy/sell quantity that restores a two-asset
// portfolio to an equal value split, and the price at which the current
// balances are already split equally. Both operations are pure functions of
// a wallet snapshot and a price.
package balance

import (
	"fmt"

	"github.com/bvk/balancebot/exchange"
	"github.com/shopspring/decimal"
)

// Calculator converts fixed-point wallet balances and prices into real
// values and back. It holds no mutable state and is safe to call
// repeatedly.
type Calculator struct {
	opts Options

	quoteScale decimal.Decimal
	priceScale decimal.Decimal
	sizeScale  decimal.Decimal
}

func New(opts *Options) (*Calculator, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Calculator{
		opts:       *opts,
		quoteScale: decimal.NewFromInt(opts.QuoteScale),
		priceScale: decimal.NewFromInt(opts.PriceScale),
		sizeScale:  decimal.NewFromInt(exchange.SizeScale),
	}
	return c, nil
}

func (c *Calculator) BaseAsset() string {
	return c.opts.BaseAsset
}

func (c *Calculator) QuoteAsset() string {
	return c.opts.QuoteAsset
}

func (c *Calculator) baseBalance(w exchange.Wallet) decimal.Decimal {
	return decimal.NewFromInt(w[c.opts.BaseAsset]).Div(c.sizeScale)
}

func (c *Calculator) quoteBalance(w exchange.Wallet) decimal.Decimal {
	return decimal.NewFromInt(w[c.opts.QuoteAsset]).Div(c.quoteScale)
}

func (c *Calculator) price(p exchange.Price) decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(c.priceScale)
}

// DeltaAt returns the base-asset quantity that must be bought (positive) or
// sold (negative) to bring the wallet to an equal value split at the given
// hypothetical price. Returns a non-nil error for a zero price instead of
// dividing by zero.
func (c *Calculator) DeltaAt(price exchange.Price, w exchange.Wallet) (exchange.Size, error) {
	p := c.price(price)
	if p.IsZero() {
		return 0, fmt.Errorf("delta is undefined at zero price")
	}
	fiat := c.quoteBalance(w)
	base := c.baseBalance(w)

	valueAtPrice := base.Mul(p)
	diff := fiat.Sub(valueAtPrice)
	diffBase := diff.Div(p)
	half := diffBase.Div(decimal.NewFromInt(2))
	return exchange.Size(half.Mul(c.sizeScale).IntPart()), nil
}

// BalancedPrice returns the price at which the wallet's base and quote
// holdings have exactly equal value. Returns a non-nil error when the base
// balance is zero; there is no price that balances an empty holding and
// callers must not proceed with a garbage value.
func (c *Calculator) BalancedPrice(w exchange.Wallet) (exchange.Price, error) {
	base := c.baseBalance(w)
	if base.IsZero() {
		return 0, fmt.Errorf("balanced price is undefined with zero %s balance", c.opts.BaseAsset)
	}
	fiat := c.quoteBalance(w)
	p := fiat.Div(base).Mul(c.priceScale)
	return exchange.Price(p.IntPart()), nil
}

// Quote formats a fixed-point price as a whole-quote-currency decimal.
func (c *Calculator) Quote(p exchange.Price) decimal.Decimal {
	return c.price(p)
}

// Base formats a fixed-point size as a whole-base-asset decimal.
func (c *Calculator) Base(s exchange.Size) decimal.Decimal {
	return decimal.NewFromInt(int64(s)).Div(c.sizeScale)
}

// QuoteUnits formats a fixed-point quote balance as a whole-quote-currency
// decimal.
func (c *Calculator) QuoteUnits(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Div(c.quoteScale)
}
