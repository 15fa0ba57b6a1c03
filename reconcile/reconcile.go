// Copyright (c) 2023 BVK Chaitanya

// Package reconcile compares locally tracked orders against the open orders
// reported by an exchange.
package reconcile

import (
	"log/slog"
	"slices"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/orders"
)

// Result classifies order ids into three disjoint sets.
type Result struct {
	// Confirmed ids are tracked locally and open on the exchange.
	Confirmed []string

	// Orphaned ids are tracked locally but no longer open on the exchange. They
	// were filled, expired or canceled by someone else.
	Orphaned []string

	// Unexpected ids are open on the exchange but were not placed by us.
	Unexpected []string
}

func (r *Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("confirmed", len(r.Confirmed)),
		slog.Int("orphaned", len(r.Orphaned)),
		slog.Int("unexpected", len(r.Unexpected)))
}

// Reconcile diffs tracked orders against remote open orders by order id. All
// id lists in the result are sorted.
func Reconcile(tracked []*orders.TrackedOrder, remote []*exchange.RemoteOrder) *Result {
	remoteIDs := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		remoteIDs[r.ID] = struct{}{}
	}
	trackedIDs := make(map[string]struct{}, len(tracked))
	for _, t := range tracked {
		trackedIDs[t.ID] = struct{}{}
	}

	res := new(Result)
	for id := range trackedIDs {
		if _, ok := remoteIDs[id]; ok {
			res.Confirmed = append(res.Confirmed, id)
		} else {
			res.Orphaned = append(res.Orphaned, id)
		}
	}
	for id := range remoteIDs {
		if _, ok := trackedIDs[id]; !ok {
			res.Unexpected = append(res.Unexpected, id)
		}
	}
	slices.Sort(res.Confirmed)
	slices.Sort(res.Orphaned)
	slices.Sort(res.Unexpected)
	return res
}

// ClaimFunc returns the tracked order for an unexpected remote order that was
// placed by the engine, or nil.
type ClaimFunc func(*exchange.RemoteOrder) *orders.TrackedOrder

// Adopt adds the unexpected remote orders claimed by the callback to the set
// and removes them from the unexpected list. Claims on an occupied rung are
// left unexpected.
func Adopt(set *orders.Set, res *Result, remote []*exchange.RemoteOrder, claim ClaimFunc, pair string) []*orders.TrackedOrder {
	byID := make(map[string]*exchange.RemoteOrder, len(remote))
	for _, r := range remote {
		byID[r.ID] = r
	}

	var adopted []*orders.TrackedOrder
	var unexpected []string
	for _, id := range res.Unexpected {
		r := byID[id]
		v := claim(r)
		if v == nil {
			unexpected = append(unexpected, id)
			continue
		}
		if err := set.Add(v); err != nil {
			slog.Warn("could not adopt an order placed by the engine", "pair", pair, "order", v, "err", err)
			unexpected = append(unexpected, id)
			continue
		}
		slog.Info("adopted an order with a lost placement reply", "pair", pair, "order", v, "client-id", r.ClientOrderID)
		adopted = append(adopted, v)
	}
	res.Unexpected = unexpected
	return adopted
}

// Apply drops orphaned orders from the set and returns them. Unexpected orders
// are only logged; they are never touched.
func Apply(set *orders.Set, res *Result, pair string) []*orders.TrackedOrder {
	var dropped []*orders.TrackedOrder
	for _, id := range res.Orphaned {
		if v := set.Remove(id); v != nil {
			slog.Info("tracked order is no longer open on the exchange (dropped)", "pair", pair, "order", v)
			dropped = append(dropped, v)
		}
	}
	for _, id := range res.Unexpected {
		slog.Warn("found an open order not placed by the engine (ignored)", "pair", pair, "id", id)
	}
	return dropped
}
