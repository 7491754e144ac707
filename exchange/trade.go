// Copyright (c) 2026 BVK Chaitanya

package exchange

// Kind tells which side of the book a trade consumed.
type Kind string

const (
	// KindBid means a sell into the bid side (our sell order filled).
	KindBid Kind = "bid"

	// KindAsk means a buy from the ask side (our buy order filled).
	KindAsk Kind = "ask"
)

// Trade is a trade message from the exchange feed.
type Trade struct {
	Time RemoteTime

	Price Price

	Size Size

	Kind Kind

	// Own is true when the exchange flags this trade as belonging to the
	// account. A manual trade can also carry this flag, so the engine
	// additionally requires the price marker before reacting.
	Own bool
}
