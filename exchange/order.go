// Copyright (c) 2026 BVK Chaitanya

package exchange

type OrderID string

// Status is the lifecycle state of an own order as reported by the host.
type Status string

const (
	// StatusOpen means the order is resting on the book.
	StatusOpen Status = "open"

	// StatusPending means the order was acknowledged but is not yet
	// resting on the book.
	StatusPending Status = "pending"

	// StatusDone means the order reached a terminal state (filled,
	// canceled or rejected).
	StatusDone Status = "done"
)

// OwnOrder is the host's record of one of the account's orders. The engine
// only reads prices for marker detection and identifiers for cancellation.
type OwnOrder struct {
	ID     OrderID
	Price  Price
	Status Status
}

func (o *OwnOrder) IsOpen() bool {
	return o.Status == StatusOpen
}

func (o *OwnOrder) IsDone() bool {
	return o.Status == StatusDone
}
