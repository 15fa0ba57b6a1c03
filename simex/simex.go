// Copyright (c) 2024 BVK Chaitanya

// Package simex implements an in-memory exchange for tests and dry runs. Mid
// prices are set by the caller and limit orders that cross the mid price are
// filled immediately.
package simex

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

type Options struct {
	// PricePrecision is the number of decimal places in prices. Defaults to 2.
	PricePrecision int32

	// QuantityPrecision is the number of decimal places in order sizes.
	// Defaults to 4.
	QuantityPrecision int32

	// Spread is the absolute difference between the ask and the bid.
	Spread decimal.Decimal
}

func (v *Options) setDefaults() {
	if v.PricePrecision == 0 {
		v.PricePrecision = 2
	}
	if v.QuantityPrecision == 0 {
		v.QuantityPrecision = 4
	}
}

type order struct {
	pair string
	exchange.RemoteOrder
}

type Exchange struct {
	opts Options

	mu sync.Mutex

	lastID int

	mids map[string]decimal.Decimal

	open   map[string]*order
	filled []*exchange.RemoteOrder

	calls map[string]int

	priceErr  error
	listErr   error
	placeErr  error
	lostErr   error
	cancelErr map[string]error
}

var _ exchange.Gateway = &Exchange{}

func New(opts *Options) *Exchange {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	return &Exchange{
		opts:      *opts,
		mids:      make(map[string]decimal.Decimal),
		open:      make(map[string]*order),
		calls:     make(map[string]int),
		cancelErr: make(map[string]error),
	}
}

// SetMid updates the mid price of a pair and fills the orders crossing it.
func (x *Exchange) SetMid(pair string, mid decimal.Decimal) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.mids[pair] = mid
	for _, id := range slices.Sorted(maps.Keys(x.open)) {
		if o := x.open[id]; o.pair == pair && crosses(&o.RemoteOrder, mid) {
			x.fillLocked(id)
		}
	}
}

func crosses(o *exchange.RemoteOrder, mid decimal.Decimal) bool {
	if o.Side == exchange.Buy {
		return o.Price.GreaterThanOrEqual(mid)
	}
	return o.Price.LessThanOrEqual(mid)
}

func (x *Exchange) fillLocked(id string) {
	o := x.open[id]
	delete(x.open, id)
	r := o.RemoteOrder
	x.filled = append(x.filled, &r)
	slog.Debug("simulated order is filled", "pair", o.pair, "order", &r)
}

// FailPrice makes price requests fail with the error until it is reset with a
// nil error.
func (x *Exchange) FailPrice(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.priceErr = err
}

// FailOpenOrders makes open order listing fail with the error.
func (x *Exchange) FailOpenOrders(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.listErr = err
}

// FailPlace makes order placements fail with the error.
func (x *Exchange) FailPlace(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.placeErr = err
}

// LosePlaceReplies makes order placements succeed on the exchange but return
// the error to the caller, as with a timed out request.
func (x *Exchange) LosePlaceReplies(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.lostErr = err
}

// FailCancel makes cancels of the order id fail with the error. An empty id
// applies to all orders.
func (x *Exchange) FailCancel(id string, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err == nil {
		delete(x.cancelErr, id)
		return
	}
	x.cancelErr[id] = err
}

// Remove drops an open order as if it was canceled or filled outside of the
// engine. Returns false if the order is not open.
func (x *Exchange) Remove(id string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.open[id]; !ok {
		return false
	}
	delete(x.open, id)
	return true
}

// AddExternal adds an open order that was not placed through the gateway.
func (x *Exchange) AddExternal(pair string, side exchange.Side, price, quantity decimal.Decimal) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.addLocked(pair, "", side, price, quantity).ID
}

func (x *Exchange) addLocked(pair, clientID string, side exchange.Side, price, quantity decimal.Decimal) *order {
	x.lastID++
	o := &order{
		pair: pair,
		RemoteOrder: exchange.RemoteOrder{
			ID:            fmt.Sprintf("sim-%06d", x.lastID),
			ClientOrderID: clientID,
			Side:          side,
			Price:         price,
			Quantity:      quantity,
		},
	}
	x.open[o.ID] = o
	return o
}

// Calls returns the number of times a gateway method was invoked.
func (x *Exchange) Calls(method string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls[method]
}

// Open returns the open orders of a pair sorted by the id.
func (x *Exchange) Open(pair string) []*exchange.RemoteOrder {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.openLocked(pair)
}

func (x *Exchange) openLocked(pair string) []*exchange.RemoteOrder {
	var list []*exchange.RemoteOrder
	for _, id := range slices.Sorted(maps.Keys(x.open)) {
		if o := x.open[id]; o.pair == pair {
			r := o.RemoteOrder
			list = append(list, &r)
		}
	}
	return list
}

// Filled returns all filled orders in the fill order.
func (x *Exchange) Filled() []*exchange.RemoteOrder {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.filled)
}

func (x *Exchange) GetMidPrice(ctx context.Context, pair string) (*exchange.Quote, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.calls["GetMidPrice"]++
	if x.priceErr != nil {
		return nil, fmt.Errorf("%w: %w", exchange.ErrPriceUnavailable, x.priceErr)
	}
	mid, ok := x.mids[pair]
	if !ok {
		return nil, fmt.Errorf("%w: no price for %q", exchange.ErrPriceUnavailable, pair)
	}
	half := x.opts.Spread.Div(decimal.NewFromInt(2))
	return &exchange.Quote{Bid: mid.Sub(half), Ask: mid.Add(half)}, nil
}

func (x *Exchange) GetOpenOrders(ctx context.Context, pair string) ([]*exchange.RemoteOrder, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.calls["GetOpenOrders"]++
	if x.listErr != nil {
		return nil, x.listErr
	}
	return x.openLocked(pair), nil
}

func (x *Exchange) PlaceOrder(ctx context.Context, pair, clientOrderID string, side exchange.Side, price, quantity decimal.Decimal) (*exchange.RemoteOrder, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.calls["PlaceOrder"]++
	if x.placeErr != nil {
		return nil, x.placeErr
	}
	if !side.IsValid() {
		return nil, fmt.Errorf("invalid side %q: %w", side, exchange.ErrRejected)
	}
	if !price.IsPositive() || !quantity.IsPositive() {
		return nil, fmt.Errorf("price and quantity must be positive: %w", exchange.ErrRejected)
	}
	o := x.addLocked(pair, clientOrderID, side, price, quantity)
	r := o.RemoteOrder
	if mid, ok := x.mids[pair]; ok && crosses(&r, mid) {
		x.fillLocked(o.ID)
	}
	if x.lostErr != nil {
		return nil, x.lostErr
	}
	return &r, nil
}

func (x *Exchange) CancelOrder(ctx context.Context, pair, orderID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.calls["CancelOrder"]++
	if err, ok := x.cancelErr[orderID]; ok {
		return err
	}
	if err, ok := x.cancelErr[""]; ok {
		return err
	}
	o, ok := x.open[orderID]
	if !ok || o.pair != pair {
		return fmt.Errorf("order %q: %w", orderID, exchange.ErrNotFound)
	}
	delete(x.open, orderID)
	return nil
}

func (x *Exchange) FormatPrice(pair string, v decimal.Decimal) string {
	return v.StringFixed(x.opts.PricePrecision)
}

func (x *Exchange) FormatQuantity(pair string, v decimal.Decimal) string {
	return v.Truncate(x.opts.QuantityPrecision).StringFixed(x.opts.QuantityPrecision)
}
