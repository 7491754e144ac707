// Copyright (c) 2026 BVK Chaitanya

package balance

import "fmt"

type Options struct {
	// BaseAsset and QuoteAsset are the wallet asset codes for the two
	// holdings being balanced.
	BaseAsset  string
	QuoteAsset string

	// QuoteScale is the number of fixed-point units per whole quote
	// currency in wallet balances (ex: 100 for cents).
	QuoteScale int64

	// PriceScale is the number of price ticks per whole quote currency
	// unit.
	PriceScale int64
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
}

func (v *Options) Check() error {
	if v.BaseAsset == v.QuoteAsset {
		return fmt.Errorf("base and quote assets cannot both be %q", v.BaseAsset)
	}
	if v.QuoteScale < 0 {
		return fmt.Errorf("quote scale cannot be negative")
	}
	if v.PriceScale < 0 {
		return fmt.Errorf("price scale cannot be negative")
	}
	return nil
}
