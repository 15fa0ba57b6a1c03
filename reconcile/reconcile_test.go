// Copyright (c) 2023 BVK Chaitanya

package reconcile

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/orders"
	"github.com/shopspring/decimal"
)

func tracked(id string, level int) *orders.TrackedOrder {
	return &orders.TrackedOrder{
		ID:         id,
		Side:       string(exchange.Buy),
		Price:      decimal.NewFromInt(10),
		Quantity:   decimal.NewFromInt(1),
		PlacedAt:   time.Unix(1700000000, 0),
		LevelIndex: level,
	}
}

func remote(id string) *exchange.RemoteOrder {
	return &exchange.RemoteOrder{ID: id, Side: exchange.Buy, Price: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(1)}
}

func toSet(ids ...[]string) map[string]int {
	m := make(map[string]int)
	for _, vs := range ids {
		for _, v := range vs {
			m[v]++
		}
	}
	return m
}

func TestReconcilePartitions(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		var local []*orders.TrackedOrder
		var remotes []*exchange.RemoteOrder
		localIDs := make(map[string]bool)
		remoteIDs := make(map[string]bool)
		for j := 0; j < 30; j++ {
			id := fmt.Sprintf("%d", j)
			switch rng.IntN(4) {
			case 0:
				local = append(local, tracked(id, j))
				localIDs[id] = true
			case 1:
				remotes = append(remotes, remote(id))
				remoteIDs[id] = true
			case 2:
				local = append(local, tracked(id, j))
				remotes = append(remotes, remote(id))
				localIDs[id], remoteIDs[id] = true, true
			}
		}

		res := Reconcile(local, remotes)

		// confirmed + orphaned == tracked
		if got := toSet(res.Confirmed, res.Orphaned); len(got) != len(localIDs) {
			t.Fatalf("want %d tracked ids, got %d", len(localIDs), len(got))
		}
		// confirmed + unexpected == remote
		if got := toSet(res.Confirmed, res.Unexpected); len(got) != len(remoteIDs) {
			t.Fatalf("want %d remote ids, got %d", len(remoteIDs), len(got))
		}
		for id, n := range toSet(res.Confirmed, res.Orphaned, res.Unexpected) {
			if n != 1 {
				t.Fatalf("id %s appears in %d classes", id, n)
			}
		}
		for _, id := range res.Orphaned {
			if remoteIDs[id] {
				t.Fatalf("orphaned id %s is open remotely", id)
			}
		}
		for _, id := range res.Unexpected {
			if localIDs[id] {
				t.Fatalf("unexpected id %s is tracked", id)
			}
		}
	}
}

func TestApply(t *testing.T) {
	set := orders.NewSet()
	for i, id := range []string{"a", "b", "c"} {
		if err := set.Add(tracked(id, i)); err != nil {
			t.Fatal(err)
		}
	}
	res := Reconcile(set.Orders(), []*exchange.RemoteOrder{remote("a"), remote("x")})
	if len(res.Confirmed) != 1 || res.Confirmed[0] != "a" {
		t.Fatalf("want [a], got %v", res.Confirmed)
	}
	if len(res.Unexpected) != 1 || res.Unexpected[0] != "x" {
		t.Fatalf("want [x], got %v", res.Unexpected)
	}

	dropped := Apply(set, res, "TEST-USD")
	if len(dropped) != 2 {
		t.Fatalf("want 2 dropped orders, got %d", len(dropped))
	}
	if want, got := []string{"a"}, set.IDs(); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestAdoptClaimedOrders(t *testing.T) {
	set := orders.NewSet()
	if err := set.Add(tracked("a", 0)); err != nil {
		t.Fatal(err)
	}
	remotes := []*exchange.RemoteOrder{remote("a"), remote("b"), remote("c"), remote("d")}
	remotes[1].ClientOrderID = "mine-1"
	remotes[2].ClientOrderID = "mine-0"
	remotes[3].ClientOrderID = "someone-else"

	claim := func(r *exchange.RemoteOrder) *orders.TrackedOrder {
		switch r.ClientOrderID {
		case "mine-1":
			v := tracked(r.ID, 1)
			v.ClientOrderID = r.ClientOrderID
			return v
		case "mine-0":
			// Rung 0 is taken by order a.
			return tracked(r.ID, 0)
		}
		return nil
	}

	res := Reconcile(set.Orders(), remotes)
	adopted := Adopt(set, res, remotes, claim, "CET-USDT")
	if len(adopted) != 1 || adopted[0].ID != "b" {
		t.Fatalf("want order b adopted, got %v", adopted)
	}
	if want, got := "[c d]", fmt.Sprint(res.Unexpected); want != got {
		t.Fatalf("want %s, got %s", want, got)
	}
	if v, ok := set.At(exchange.Buy, 1); !ok || v.ID != "b" {
		t.Fatalf("want order b tracked at level 1")
	}
}
