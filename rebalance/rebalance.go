// Copyright (c) 2023 BVK Chaitanya

// Package rebalance decides which confirmed orders have drifted far enough
// from the reference price to be canceled and placed again.
package rebalance

import (
	"time"

	"github.com/bvk/ladderbot/orders"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Deviation returns |price-mid|/mid as a fraction.
func Deviation(price, mid decimal.Decimal) decimal.Decimal {
	return price.Sub(mid).Abs().Div(mid)
}

// TooFar returns true if the order price deviates from mid by more than
// maxDistance percent.
func TooFar(order *orders.TrackedOrder, mid, maxDistance decimal.Decimal) bool {
	return Deviation(order.Price, mid).GreaterThan(maxDistance.Div(hundred))
}

// RecentlyTouched returns true if the order was placed or repriced less than
// minAge ago.
func RecentlyTouched(order *orders.TrackedOrder, minAge time.Duration, now time.Time) bool {
	return order.Age(now) < minAge
}

// SelectForReprice returns the confirmed orders that are too far from the mid
// price and were not touched within minAge. Order of the input is preserved.
//
// The age guard keeps an order repriced in one cycle from being picked again
// in the next cycle while the mid price keeps moving.
func SelectForReprice(confirmed []*orders.TrackedOrder, mid, maxDistance decimal.Decimal, minAge time.Duration, now time.Time) []*orders.TrackedOrder {
	if !mid.IsPositive() {
		return nil
	}
	var selected []*orders.TrackedOrder
	for _, v := range confirmed {
		if TooFar(v, mid, maxDistance) && !RecentlyTouched(v, minAge, now) {
			selected = append(selected, v)
		}
	}
	return selected
}
