package orderbook

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// priceLevel aggregates every active order resting at one price, in FIFO
// (time-priority) order.
type priceLevel struct {
	Price  decimal.Decimal
	Orders []*Order
}

type priceLevels = btree.BTreeG[*priceLevel]

// Book holds one symbol's resting orders and resolves crossing trades with
// strict price-time priority. Callers are expected to hold the engine's
// write lock for the duration of AddOrder/CancelOrder/Match; Book's own
// mutex only guards against snapshot readers tearing a read across a
// concurrent structural mutation.
type Book struct {
	mu     sync.Mutex
	symbol string

	bids *priceLevels // best (highest) price first
	asks *priceLevels // best (lowest) price first

	marketBids []*Order
	marketAsks []*Order

	orders map[uint64]*Order

	maxOrderAgeMs int64
}

// NewBook constructs an empty book for symbol with the given default
// expiry, in milliseconds of simulated time. A maxOrderAgeMs of 0 disables
// expiry.
func NewBook(symbol string, maxOrderAgeMs int64) *Book {
	return &Book{
		symbol: symbol,
		bids: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.Price.GreaterThan(b.Price)
		}),
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.Price.LessThan(b.Price)
		}),
		orders:        make(map[uint64]*Order),
		maxOrderAgeMs: maxOrderAgeMs,
	}
}

// SetMaxOrderAgeMs hot-sets the expiry used by subsequent Match/peek calls.
func (b *Book) SetMaxOrderAgeMs(ms int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxOrderAgeMs = ms
}

// AddOrder assigns an id (if unset) and the given sim-time timestamp, then
// inserts it into the book. The order is copied; mutating the caller's
// value afterward has no effect on the book.
func (b *Book) AddOrder(o Order, nowMs int64) (uint64, error) {
	if err := validate(&o); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if o.ID == 0 {
		o.ID = NextOrderID()
	}
	o.Timestamp = nowMs
	o.Active = true
	o.Symbol = b.symbol

	stored := o
	switch stored.Kind {
	case Market:
		if stored.Side == Buy {
			b.marketBids = append(b.marketBids, &stored)
		} else {
			b.marketAsks = append(b.marketAsks, &stored)
		}
	default:
		lvl := b.levelFor(stored.Side, stored.Price, true)
		lvl.Orders = append(lvl.Orders, &stored)
	}
	b.orders[stored.ID] = &stored
	return stored.ID, nil
}

// CancelOrder marks id inactive. Returns false if id is unknown or already
// inactive. Actual removal from the resting structure happens lazily the
// next time that entry reaches the front of its side.
func (b *Book) CancelOrder(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok || !o.Active {
		return false
	}
	o.Active = false
	return true
}

// Clear removes all resting state. Order-id/match-number sequences are not
// affected since they are process-global.
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = btree.NewBTreeG(func(x, y *priceLevel) bool { return x.Price.GreaterThan(y.Price) })
	b.asks = btree.NewBTreeG(func(x, y *priceLevel) bool { return x.Price.LessThan(y.Price) })
	b.marketBids = nil
	b.marketAsks = nil
	b.orders = make(map[uint64]*Order)
}

func (b *Book) levelFor(side Side, price decimal.Decimal, create bool) *priceLevel {
	tree := b.treeFor(side)
	key := &priceLevel{Price: price}
	if lvl, ok := tree.GetMut(key); ok {
		return lvl
	}
	if !create {
		return nil
	}
	tree.Set(key)
	return key
}

func (b *Book) treeFor(side Side) *priceLevels {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) marketQueueFor(side Side) *[]*Order {
	if side == Buy {
		return &b.marketBids
	}
	return &b.marketAsks
}

func (b *Book) isExpired(o *Order, nowMs int64) bool {
	return b.maxOrderAgeMs > 0 && nowMs-o.Timestamp > b.maxOrderAgeMs
}

// peekFront returns the first active, unexpired order on side, purging any
// inactive/expired orders (and the levels they empty) it encounters along
// the way. ok is false if the side has no live orders.
func (b *Book) peekFront(side Side, nowMs int64) (order *Order, lvl *priceLevel, fromMarket bool, ok bool) {
	mq := b.marketQueueFor(side)
	for len(*mq) > 0 {
		o := (*mq)[0]
		if !o.Active || b.isExpired(o, nowMs) {
			delete(b.orders, o.ID)
			*mq = (*mq)[1:]
			continue
		}
		return o, nil, true, true
	}

	tree := b.treeFor(side)
	for {
		lvl, has := tree.Min()
		if !has {
			return nil, nil, false, false
		}
		for len(lvl.Orders) > 0 {
			o := lvl.Orders[0]
			if !o.Active || b.isExpired(o, nowMs) {
				delete(b.orders, o.ID)
				lvl.Orders = lvl.Orders[1:]
				continue
			}
			return o, lvl, false, true
		}
		// level exhausted by purge
		tree.Delete(lvl)
	}
}

// removeFront detaches a fully consumed front order from its resting
// structure. Caller must have just obtained order/lvl/fromMarket from
// peekFront on the same side with no intervening mutation.
func (b *Book) removeFront(side Side, fromMarket bool, lvl *priceLevel, o *Order) {
	if fromMarket {
		mq := b.marketQueueFor(side)
		if len(*mq) > 0 {
			*mq = (*mq)[1:]
		}
	} else if lvl != nil {
		if len(lvl.Orders) > 0 {
			lvl.Orders = lvl.Orders[1:]
		}
		if len(lvl.Orders) == 0 {
			b.treeFor(side).Delete(lvl)
		}
	}
	delete(b.orders, o.ID)
}

// Match repeatedly crosses the front of both sides until either side is
// empty, both tops are limit orders that no longer cross, or a front entry
// on either side was found dead during this pass (already handled by
// peekFront, which purges before returning). Execution price is always the
// resting side's price: whichever top order arrived earlier, or the sole
// limit price when the other side's top is an unpriced market order.
func (b *Book) Match(nowMs int64) []Trade {
	b.mu.Lock()
	defer b.mu.Unlock()

	var trades []Trade
	for {
		bidOrder, bidLvl, bidMarket, bidOK := b.peekFront(Buy, nowMs)
		askOrder, askLvl, askMarket, askOK := b.peekFront(Sell, nowMs)
		if !bidOK || !askOK {
			break
		}
		if !bidMarket && !askMarket && bidOrder.Price.LessThan(askOrder.Price) {
			break
		}

		restingPrice, ok := restingPrice(bidOrder, askOrder, bidMarket, askMarket)
		if !ok {
			// Neither side carries a price; there is nothing to execute
			// against until a limit order arrives on one side.
			break
		}

		qty := bidOrder.Quantity
		if askOrder.Quantity < qty {
			qty = askOrder.Quantity
		}
		trades = append(trades, Trade{
			MatchNumber:     NextMatchNumber(),
			BuyOrderID:      bidOrder.ID,
			SellOrderID:     askOrder.ID,
			BuyerAgentID:    bidOrder.AgentID,
			SellerAgentID:   askOrder.AgentID,
			BuyerAgentType:  bidOrder.AgentType,
			SellerAgentType: askOrder.AgentType,
			Symbol:          b.symbol,
			Price:           restingPrice,
			Quantity:        qty,
			Timestamp:       nowMs,
		})

		bidOrder.Quantity -= qty
		askOrder.Quantity -= qty
		if bidOrder.Quantity == 0 {
			b.removeFront(Buy, bidMarket, bidLvl, bidOrder)
		}
		if askOrder.Quantity == 0 {
			b.removeFront(Sell, askMarket, askLvl, askOrder)
		}
	}
	return trades
}

// restingPrice picks the execution price for a crossing pair: whichever
// side is resting (earlier timestamp, or the sole limit order when the
// other side's top is an unpriced market order). ok is false only when
// both tops are market orders and no price can be determined.
func restingPrice(bidOrder, askOrder *Order, bidMarket, askMarket bool) (decimal.Decimal, bool) {
	switch {
	case bidMarket && askMarket:
		return decimal.Zero, false
	case bidMarket:
		return askOrder.Price, true
	case askMarket:
		return bidOrder.Price, true
	case bidOrder.Timestamp <= askOrder.Timestamp:
		return bidOrder.Price, true
	default:
		return askOrder.Price, true
	}
}

// BestBid returns the best resting limit bid price, or zero if none.
func (b *Book) BestBid() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.purgedTop(Buy)
	if !ok {
		return decimal.Zero
	}
	return lvl.Price
}

// BestAsk returns the best resting limit ask price, or zero if none.
func (b *Book) BestAsk() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl, ok := b.purgedTop(Sell)
	if !ok {
		return decimal.Zero
	}
	return lvl.Price
}

// Spread returns BestAsk - BestBid, zero if either side is empty.
func (b *Book) Spread() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	bidLvl, bidOK := b.purgedTop(Buy)
	askLvl, askOK := b.purgedTop(Sell)
	if !bidOK || !askOK {
		return decimal.Zero
	}
	return askLvl.Price.Sub(bidLvl.Price)
}

// MidPrice returns the midpoint of best bid/ask, or whichever side is
// populated if only one side has resting liquidity, or zero if neither does.
func (b *Book) MidPrice() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	bidLvl, bidOK := b.purgedTop(Buy)
	askLvl, askOK := b.purgedTop(Sell)
	switch {
	case bidOK && askOK:
		return bidLvl.Price.Add(askLvl.Price).Div(decimal.NewFromInt(2))
	case bidOK:
		return bidLvl.Price
	case askOK:
		return askLvl.Price
	default:
		return decimal.Zero
	}
}

// purgedTop returns the best resting limit level on side, skipping (and
// evicting) any now-empty levels left by lazy order purging. Unlike
// peekFront it ignores market orders, since they carry no quotable price.
func (b *Book) purgedTop(side Side) (*priceLevel, bool) {
	tree := b.treeFor(side)
	for {
		lvl, ok := tree.Min()
		if !ok {
			return nil, false
		}
		if len(lvl.Orders) > 0 {
			return lvl, true
		}
		tree.Delete(lvl)
	}
}

// Level is one aggregated, price-sorted rung of a depth snapshot.
type Level struct {
	Price    decimal.Decimal
	Quantity int64
	Count    int
}

// DepthSnapshot is an immutable, aggregated view of the top of book.
type DepthSnapshot struct {
	Symbol   string
	Bids     []Level
	Asks     []Level
	BestBid  decimal.Decimal
	BestAsk  decimal.Decimal
	MidPrice decimal.Decimal
	Spread   decimal.Decimal
}

// Snapshot returns up to depth aggregated levels per side, active orders
// only, price-sorted best-first.
func (b *Book) Snapshot(depth int) DepthSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := DepthSnapshot{Symbol: b.symbol}
	snap.Bids = b.collectLevels(Buy, depth)
	snap.Asks = b.collectLevels(Sell, depth)

	if len(snap.Bids) > 0 {
		snap.BestBid = snap.Bids[0].Price
	}
	if len(snap.Asks) > 0 {
		snap.BestAsk = snap.Asks[0].Price
	}
	switch {
	case len(snap.Bids) > 0 && len(snap.Asks) > 0:
		snap.Spread = snap.BestAsk.Sub(snap.BestBid)
		snap.MidPrice = snap.BestBid.Add(snap.BestAsk).Div(decimal.NewFromInt(2))
	case len(snap.Bids) > 0:
		snap.MidPrice = snap.BestBid
	case len(snap.Asks) > 0:
		snap.MidPrice = snap.BestAsk
	}
	return snap
}

func (b *Book) collectLevels(side Side, depth int) []Level {
	var out []Level
	b.treeFor(side).Scan(func(lvl *priceLevel) bool {
		qty := int64(0)
		count := 0
		for _, o := range lvl.Orders {
			if o.Active {
				qty += o.Quantity
				count++
			}
		}
		if count > 0 {
			out = append(out, Level{Price: lvl.Price, Quantity: qty, Count: count})
		}
		return depth <= 0 || len(out) < depth
	})
	return out
}

// OrderCount returns the number of still-tracked orders (active or not yet
// lazily purged) on the book.
func (b *Book) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}
