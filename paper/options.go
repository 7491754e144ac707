// Copyright (c) 2026 BVK Chaitanya

package paper

import "fmt"

type Options struct {
	// BaseAsset and QuoteAsset are the wallet asset codes.
	BaseAsset  string
	QuoteAsset string

	// QuoteScale is the number of fixed-point units per whole quote
	// currency in wallet balances.
	QuoteScale int64

	// PriceScale is the number of price ticks per whole quote currency
	// unit.
	PriceScale int64

	// Spread is the simulated bid/ask distance in ticks. Bid and ask sit
	// half a spread below and above the last feed price.
	Spread int64
}

func (v *Options) setDefaults() {
	if v.BaseAsset == "" {
		v.BaseAsset = "BTC"
	}
	if v.QuoteAsset == "" {
		v.QuoteAsset = "USD"
	}
	if v.QuoteScale == 0 {
		v.QuoteScale = 100
	}
	if v.PriceScale == 0 {
		v.PriceScale = 1
	}
	if v.Spread == 0 {
		v.Spread = 2
	}
}

func (v *Options) Check() error {
	if v.BaseAsset == v.QuoteAsset {
		return fmt.Errorf("base and quote assets cannot both be %q", v.BaseAsset)
	}
	if v.QuoteScale < 0 || v.PriceScale < 0 {
		return fmt.Errorf("scales cannot be negative")
	}
	if v.Spread < 0 {
		return fmt.Errorf("spread cannot be negative")
	}
	return nil
}
