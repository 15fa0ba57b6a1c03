// Copyright (c) 2023 BVK Chaitanya

package orders

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
	"github.com/shopspring/decimal"
)

func newOrder(id string, side exchange.Side, level int) *TrackedOrder {
	return &TrackedOrder{
		ID:         id,
		Side:       string(side),
		Price:      decimal.NewFromInt(100),
		Quantity:   decimal.NewFromInt(1),
		PlacedAt:   time.Unix(1700000000, 0),
		LevelIndex: level,
	}
}

func TestSetOneOrderPerRung(t *testing.T) {
	s := NewSet()
	if err := s.Add(newOrder("a", exchange.Buy, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(newOrder("b", exchange.Buy, 0)); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}
	if err := s.Add(newOrder("a", exchange.Sell, 0)); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}
	if err := s.Add(newOrder("c", exchange.Sell, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("want 2, got %d", s.Len())
	}

	if v := s.Remove("a"); v == nil || v.ID != "a" {
		t.Fatalf("want order a, got %v", v)
	}
	if _, ok := s.At(exchange.Buy, 0); ok {
		t.Fatalf("rung must be free after remove")
	}
	if err := s.Add(newOrder("b", exchange.Buy, 0)); err != nil {
		t.Fatal(err)
	}
	if v := s.Remove("missing"); v != nil {
		t.Fatalf("want nil, got %v", v)
	}
}

func TestSetRestore(t *testing.T) {
	saved := []*gobs.TrackedOrder{
		(*gobs.TrackedOrder)(newOrder("a", exchange.Buy, 0)),
		(*gobs.TrackedOrder)(newOrder("b", exchange.Buy, 0)),
		(*gobs.TrackedOrder)(newOrder("c", exchange.Sell, 1)),
	}
	s, err := Restore(saved)
	if err == nil {
		t.Fatalf("want error for the colliding order")
	}
	if want, got := []string{"a", "c"}, s.IDs(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("want %v, got %v", want, got)
	}

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].Side != "BUY" || snap[1].Side != "SELL" {
		t.Fatalf("unexpected snapshot order %v", snap)
	}
	snap[0].LevelIndex = 9
	if v, _ := s.Get("a"); v.LevelIndex != 0 {
		t.Fatalf("snapshot must not alias tracked orders")
	}
}

func TestCheck(t *testing.T) {
	v := newOrder("", exchange.Buy, 0)
	if err := v.Check(); err == nil {
		t.Fatalf("want error for empty id")
	}
	v = newOrder("x", "HOLD", 0)
	if err := v.Check(); err == nil {
		t.Fatalf("want error for invalid side")
	}
	v = newOrder("x", exchange.Sell, -1)
	if err := v.Check(); err == nil {
		t.Fatalf("want error for negative level")
	}
}
