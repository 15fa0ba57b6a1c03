// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func TestIDGenOffset(t *testing.T) {
	g1 := New("CET-USDT", 0)
	offset := rand.Intn(20)
	for i := 0; i < offset; i++ {
		g1.NextID()
	}

	g2 := New("CET-USDT", g1.Offset())
	if a, b := g1.NextID(), g2.NextID(); a != b {
		t.Fatalf("want %v, got %v", a, b)
	}
}

func TestIDGenRevert(t *testing.T) {
	g := New(t.Name(), 0)
	seen := make(map[uint64]uuid.UUID)
	for i := 0; i < 100; i++ {
		seen[g.Offset()] = g.NextID()
	}

	g.RevertID()
	if want, got := seen[99], g.NextID(); want != got {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestClientIDs(t *testing.T) {
	g := New("BTC-USDT", 0)
	other := New("ETH-USDT", 0)
	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NextClientID()
		if len(id) != 32 {
			t.Fatalf("want 32 characters, got %q", id)
		}
		if ids[id] {
			t.Fatalf("duplicate id %q at %d", id, i)
		}
		ids[id] = true
		if ids[other.NextClientID()] {
			t.Fatalf("ids of different seeds collide")
		}
	}
}

func TestLookup(t *testing.T) {
	g := New("BTC-USDT", 10)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, g.NextClientID())
	}
	// Position is at 15 now.
	if n, ok := g.Lookup(ids[2], 8, 0); !ok || n != 12 {
		t.Fatalf("want 12, got %d (found=%v)", n, ok)
	}
	if _, ok := g.Lookup(ids[0], 2, 0); ok {
		t.Fatalf("want id outside the lookback to be not found")
	}
	if _, ok := g.Lookup("not-an-id", 100, 100); ok {
		t.Fatalf("want unknown id to be not found")
	}

	ahead := New("BTC-USDT", 18)
	future := ahead.NextClientID()
	n, ok := g.Lookup(future, 0, 4)
	if !ok || n != 18 {
		t.Fatalf("want 18, got %d (found=%v)", n, ok)
	}
	g.SkipPast(n)
	if want, got := uint64(19), g.Offset(); want != got {
		t.Fatalf("want %d, got %d", want, got)
	}
	g.SkipPast(3)
	if want, got := uint64(19), g.Offset(); want != got {
		t.Fatalf("want %d, got %d", want, got)
	}
}
