// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuoteMid(t *testing.T) {
	q := &Quote{Bid: decimal.RequireFromString("0.010000"), Ask: decimal.RequireFromString("0.010002")}
	if err := q.Check(); err != nil {
		t.Fatal(err)
	}
	if want, got := decimal.RequireFromString("0.010001"), q.Mid(); !want.Equal(got) {
		t.Fatalf("want %s, got %s", want, got)
	}

	crossed := &Quote{Bid: decimal.NewFromInt(2), Ask: decimal.NewFromInt(1)}
	if err := crossed.Check(); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("want ErrPriceUnavailable, got %v", err)
	}
	zero := &Quote{}
	if err := zero.Check(); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("want ErrPriceUnavailable, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("could not cancel order %q: %w", "123", ErrNotFound)
	if !IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist match")
	}
	if IsNotFound(fmt.Errorf("timeout")) {
		t.Fatalf("timeout must not be classified as not found")
	}
}

func TestParseSide(t *testing.T) {
	for _, s := range []string{"buy", "BUY", "Buy"} {
		if v, err := ParseSide(s); err != nil || v != Buy {
			t.Fatalf("want BUY, got %v (err %v)", v, err)
		}
	}
	if _, err := ParseSide("hold"); err == nil {
		t.Fatalf("want error for invalid side")
	}
	if Buy.Opposite() != Sell || Sell.Opposite() != Buy {
		t.Fatalf("opposite sides are wrong")
	}
}
