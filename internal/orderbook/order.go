// Package orderbook implements a single-instrument price-time-priority limit
// order book: resting bid/ask price levels, lazy expiry/cancellation, and
// deterministic trade resolution.
package orderbook

import (
	"errors"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Side identifies which book an order rests on.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Kind distinguishes a priced resting order from an unpriced sweep order.
type Kind string

const (
	Limit  Kind = "limit"
	Market Kind = "market"
)

// ErrInvalidOrder is returned by AddOrder for a non-positive quantity or a
// non-positive limit price.
var ErrInvalidOrder = errors.New("orderbook: invalid order")

// Order is a value-typed order record. The book stores and mutates its own
// copy; callers that need to observe fills should do so through the trades
// returned from Match, not by retaining a reference to what they submitted.
type Order struct {
	ID        uint64
	AgentID   uint64
	AgentType string
	Symbol    string
	Side      Side
	Kind      Kind
	Price     decimal.Decimal // 0 for market orders
	Quantity  int64
	Timestamp int64 // sim-time ms
	Active    bool
}

// Trade is the resolution of a crossing pair of orders.
type Trade struct {
	MatchNumber     uint64
	BuyOrderID      uint64
	SellOrderID     uint64
	BuyerAgentID    uint64
	SellerAgentID   uint64
	BuyerAgentType  string
	SellerAgentType string
	Symbol          string
	Price           decimal.Decimal
	Quantity        int64
	Timestamp       int64
}

var orderIDCounter uint64
var matchCounter uint64

// NextOrderID returns the next value in the process-wide monotonic order-id
// sequence. IDs are unique per process, not just per book, mirroring the
// reference implementation's single global sequence.
func NextOrderID() uint64 { return atomic.AddUint64(&orderIDCounter, 1) }

// SetOrderIDCounter seeds the order-id sequence, used when restoring
// persisted state so freshly minted IDs never collide with restored ones.
func SetOrderIDCounter(v uint64) { atomic.StoreUint64(&orderIDCounter, v) }

// GetOrderIDCounter returns the current order-id sequence value.
func GetOrderIDCounter() uint64 { return atomic.LoadUint64(&orderIDCounter) }

// NextMatchNumber returns the next value in the process-wide monotonic
// match-number sequence, used to give trades a stable total order even
// across symbols.
func NextMatchNumber() uint64 { return atomic.AddUint64(&matchCounter, 1) }

// SetMatchCounter seeds the match-number sequence.
func SetMatchCounter(v uint64) { atomic.StoreUint64(&matchCounter, v) }

// GetMatchCounter returns the current match-number sequence value.
func GetMatchCounter() uint64 { return atomic.LoadUint64(&matchCounter) }

func validate(o *Order) error {
	if o.Quantity <= 0 {
		return ErrInvalidOrder
	}
	if o.Kind == Limit && o.Price.Sign() <= 0 {
		return ErrInvalidOrder
	}
	return nil
}
