// Copyright (c) 2026 BVK Chaitanya

package engine

import (
	"fmt"

	"github.com/bvk/balancebot/exchange"
)

type Options struct {
	// DistancePct is the percent price distance from the center at which
	// the two bracket orders are placed.
	DistancePct int64

	// MarkerDigit is the lowest decimal price digit used to identify the
	// bot's own orders. It should not collide with digits the exchange's
	// native price granularity commonly produces.
	MarkerDigit int

	// MinSize is the smallest order quantity the exchange accepts.
	// Computed bracket quantities below this are clamped up to it.
	MinSize exchange.Size
}

func (v *Options) setDefaults() {
	if v.DistancePct == 0 {
		v.DistancePct = 5
	}
	if v.MarkerDigit == 0 {
		v.MarkerDigit = 7
	}
	if v.MinSize == 0 {
		v.MinSize = exchange.SizeScale / 100
	}
}

func (v *Options) Check() error {
	if v.DistancePct < 0 || v.DistancePct >= 100 {
		return fmt.Errorf("distance percent %d is out of range", v.DistancePct)
	}
	if v.MinSize < 0 {
		return fmt.Errorf("minimum order size cannot be negative")
	}
	return nil
}
