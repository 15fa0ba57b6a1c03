// Copyright (c) 2023 BVK Chaitanya

package rebalance

import (
	"testing"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/ladder"
	"github.com/bvk/ladderbot/orders"
	"github.com/shopspring/decimal"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sellOrder(price string, age time.Duration) *orders.TrackedOrder {
	return &orders.TrackedOrder{
		ID:         "sell-0",
		Side:       string(exchange.Sell),
		Price:      decimal.RequireFromString(price),
		Quantity:   decimal.NewFromInt(1000),
		PlacedAt:   now.Add(-age),
		LevelIndex: 0,
	}
}

func TestScenarioFarAndOld(t *testing.T) {
	mid := decimal.RequireFromString("0.010001")
	order := sellOrder("0.010511", 5*time.Minute)

	selected := SelectForReprice([]*orders.TrackedOrder{order}, mid, decimal.NewFromInt(2), 2*time.Minute, now)
	if len(selected) != 1 {
		t.Fatalf("want order selected for reprice, got %d", len(selected))
	}

	price, err := ladder.Price(mid, exchange.Sell, decimal.RequireFromString("0.5"), selected[0].LevelIndex)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := "0.010051", price.Truncate(6).String(); want != got {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestScenarioRecentlyTouched(t *testing.T) {
	mid := decimal.RequireFromString("0.010001")
	order := sellOrder("0.010511", 30*time.Second)

	selected := SelectForReprice([]*orders.TrackedOrder{order}, mid, decimal.NewFromInt(2), 2*time.Minute, now)
	if len(selected) != 0 {
		t.Fatalf("want no orders selected, got %v", selected)
	}
}

func TestScenarioWideThreshold(t *testing.T) {
	mid := decimal.RequireFromString("0.010001")
	order := sellOrder("0.010511", 5*time.Minute)

	selected := SelectForReprice([]*orders.TrackedOrder{order}, mid, decimal.NewFromInt(10), 2*time.Minute, now)
	if len(selected) != 0 {
		t.Fatalf("want no orders selected, got %v", selected)
	}
}

func TestRepriceCooldown(t *testing.T) {
	maxDistance := decimal.NewFromInt(2)
	minAge := 2 * time.Minute

	// Order repriced at T keeps falling behind a rising mid price.
	repricedAt := now
	order := sellOrder("100", 0)
	order.PlacedAt = repricedAt

	mid := decimal.NewFromInt(100)
	for d := time.Duration(0); d < minAge; d += 10 * time.Second {
		mid = mid.Mul(decimal.RequireFromString("1.01"))
		at := repricedAt.Add(d)
		if v := SelectForReprice([]*orders.TrackedOrder{order}, mid, maxDistance, minAge, at); len(v) != 0 {
			t.Fatalf("order repriced at %s selected again at %s", repricedAt, at)
		}
	}
	if v := SelectForReprice([]*orders.TrackedOrder{order}, mid, maxDistance, minAge, repricedAt.Add(minAge)); len(v) != 1 {
		t.Fatalf("want order selected after the cool down")
	}
}

func TestDeviation(t *testing.T) {
	d := Deviation(decimal.NewFromInt(98), decimal.NewFromInt(100))
	if !d.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("want 0.02, got %s", d)
	}
	// Exactly at the threshold is not too far.
	order := sellOrder("102", time.Hour)
	if TooFar(order, decimal.NewFromInt(100), decimal.NewFromInt(2)) {
		t.Fatalf("deviation equal to the threshold must not be too far")
	}
}
