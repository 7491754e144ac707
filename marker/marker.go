// Copyright (c) 2026 BVK Chaitanya

// Package marker encodes an ownership tag into the lowest decimal digit of
// an integer price. The exchange offers no order-tagging metadata, so the
// bot recognizes its own orders in a shared order book by the digit their
// prices end with. The tag survives order-book round-trips at the cost of a
// 1-in-10 price precision loss.
package marker

import (
	"fmt"

	"github.com/bvk/balancebot/exchange"
)

// Add replaces the lowest decimal digit of the price with the given digit.
// The result is always within [price-9, price+9].
func Add(p exchange.Price, digit int) exchange.Price {
	return p/10*10 + exchange.Price(digit)
}

// Has returns true if the price carries the given digit as its lowest
// decimal digit.
func Has(p exchange.Price, digit int) bool {
	return p%10 == exchange.Price(digit)
}

// Marker holds the digit configured for this bot instance.
type Marker struct {
	digit int
}

func New(digit int) (*Marker, error) {
	if digit < 0 || digit > 9 {
		return nil, fmt.Errorf("marker digit %d is not a single decimal digit", digit)
	}
	return &Marker{digit: digit}, nil
}

func (m *Marker) Digit() int {
	return m.digit
}

// Mark returns the price with the bot's own marker embedded.
func (m *Marker) Mark(p exchange.Price) exchange.Price {
	return Add(p, m.digit)
}

// Owns returns true if the price carries the bot's own marker.
func (m *Marker) Owns(p exchange.Price) bool {
	return Has(p, m.digit)
}
