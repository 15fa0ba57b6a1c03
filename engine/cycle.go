// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/ladder"
	"github.com/bvk/ladderbot/orders"
	"github.com/bvk/ladderbot/rebalance"
	"github.com/bvk/ladderbot/reconcile"
	"github.com/shopspring/decimal"
)

// runCycle runs one cycle with the latest config. Panics are caught and
// reported as cycle failures so that the loop keeps going.
func (e *Engine) runCycle(ctx context.Context, running bool) (report *CycleReport) {
	if p := e.pending.Swap(nil); p != nil {
		e.cfg.Store(p)
		slog.Info("applied pending config update", "config", p)
	}
	cfg := e.cfg.Load()

	start := e.opts.Now()
	report = &CycleReport{Pair: e.pair, Start: start}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "pair", e.pair, "panic", r)
			slog.Error(string(debug.Stack()))
			report.Failures = append(report.Failures, fmt.Sprintf("panic: %v", r))
			if report.Delay == 0 {
				report.Delay = e.fallbackDelay(cfg)
			}
		}
		report.Duration = e.opts.Now().Sub(start)
		e.finishCycle(ctx, report, running)
	}()

	if cfg.IsVolume() {
		e.volumeCycle(ctx, cfg, report)
	} else {
		e.marketMakingCycle(ctx, cfg, report)
	}
	return report
}

func (e *Engine) fallbackDelay(cfg *config.Config) time.Duration {
	if cfg.IsVolume() {
		return cfg.IntervalMax
	}
	return cfg.CycleInterval
}

func (e *Engine) finishCycle(ctx context.Context, r *CycleReport, running bool) {
	e.cycleCount++
	if r.Failed() {
		e.failedCycles++
		if r.Skipped != "" {
			e.addFailure(r.Skipped)
		}
		for _, f := range r.Failures {
			e.addFailure(f)
		}
	}
	if err := e.save(ctx, running); err != nil {
		slog.Error("could not save engine state", "pair", e.pair, "err", err)
		r.Failures = append(r.Failures, fmt.Sprintf("could not save state: %v", err))
	}
	e.lastReport = r
	e.publishStatus()
	e.reports.Send(r)

	if r.Failed() {
		slog.Warn("cycle completed with failures", "report", r, "failures", r.Failures)
	} else {
		slog.Info("cycle completed", "report", r)
	}
}

func (e *Engine) addFailure(msg string) {
	e.failures = append(e.failures, msg)
	if n := len(e.failures) - e.opts.MaxFailures; n > 0 {
		e.failures = append([]string(nil), e.failures[n:]...)
	}
}

// marketMakingCycle reconciles the tracked orders with the exchange, cancels
// the stale ones and fills every empty rung of the ladder. A failure to fetch
// the price or the open orders skips the cycle without touching any order.
func (e *Engine) marketMakingCycle(ctx context.Context, cfg *config.Config, r *CycleReport) {
	r.Delay = cfg.CycleInterval

	quote, err := e.gw.GetMidPrice(ctx, e.pair)
	if err == nil {
		err = quote.Check()
	}
	if err != nil {
		r.Skipped = fmt.Sprintf("could not fetch price: %v", err)
		return
	}
	mid := quote.Mid()
	r.Mid = mid

	remote, err := e.gw.GetOpenOrders(ctx, e.pair)
	if err != nil {
		r.Skipped = fmt.Sprintf("could not fetch open orders: %v", err)
		return
	}

	res := reconcile.Reconcile(e.set.Orders(), remote)
	adopted := reconcile.Adopt(e.set, res, remote, e.claimFunc(cfg, mid), e.pair)
	// Unconfirmed placements that are not open now were rejected or filled.
	clear(e.unconfirmed)
	dropped := reconcile.Apply(e.set, res, e.pair)
	r.Adopted = len(adopted)
	r.Orphaned = len(dropped)
	r.Unexpected = len(res.Unexpected)

	// Rungs beyond the level count are left over from a config update.
	var confirmed []*orders.TrackedOrder
	for _, v := range e.set.Orders() {
		if v.LevelIndex < cfg.LevelCount {
			confirmed = append(confirmed, v)
			continue
		}
		if e.cancel(ctx, v, r) {
			r.Cancelled++
		}
	}

	now := e.opts.Now()
	for _, v := range rebalance.SelectForReprice(confirmed, mid, cfg.MaxRebalanceDistance, cfg.MinRebalanceAge, now) {
		if e.cancel(ctx, v, r) {
			r.Repriced++
		}
	}

	for _, side := range []exchange.Side{exchange.Buy, exchange.Sell} {
		e.fillLadder(ctx, cfg, side, quote, r)
	}
}

const (
	// idLookback and idLookahead bound the client order id positions searched
	// for the owner of an unexpected order.
	idLookback  = 1024
	idLookahead = 64
)

// claimFunc returns a callback that claims unexpected remote orders placed by
// this engine. Orders from placements with an unknown outcome keep their rung.
// Orders with a client id from the generator that the engine has no record of,
// as after a crash, take the free rung closest to their price.
func (e *Engine) claimFunc(cfg *config.Config, mid decimal.Decimal) reconcile.ClaimFunc {
	return func(r *exchange.RemoteOrder) *orders.TrackedOrder {
		if r.ClientOrderID == "" {
			return nil
		}
		if v, ok := e.unconfirmed[r.ClientOrderID]; ok {
			order := *v
			order.ID = r.ID
			return &order
		}
		n, ok := e.ids.Lookup(r.ClientOrderID, idLookback, idLookahead)
		if !ok {
			return nil
		}
		e.ids.SkipPast(n)
		level, ok := e.nearestFreeRung(cfg, mid, r.Side, r.Price)
		if !ok {
			return nil
		}
		return &orders.TrackedOrder{
			ID:            r.ID,
			ClientOrderID: r.ClientOrderID,
			Side:          string(r.Side),
			Price:         r.Price,
			Quantity:      r.Quantity,
			PlacedAt:      e.opts.Now(),
			LevelIndex:    level,
		}
	}
}

func (e *Engine) nearestFreeRung(cfg *config.Config, mid decimal.Decimal, side exchange.Side, price decimal.Decimal) (int, bool) {
	prices, err := ladder.Generate(mid, side, cfg.LevelDistance, cfg.LevelCount, cfg.MaxLevels)
	if err != nil {
		return 0, false
	}
	best, found := 0, false
	var bestDiff decimal.Decimal
	for level, target := range prices {
		if _, ok := e.set.At(side, level); ok {
			continue
		}
		diff := target.Sub(price).Abs()
		if !found || diff.LessThan(bestDiff) {
			best, bestDiff, found = level, diff, true
		}
	}
	return best, found
}

// cancel cancels a tracked order and drops it from the set. An order that is
// already gone on the exchange is dropped without a retry. Returns false when
// the order is still tracked.
func (e *Engine) cancel(ctx context.Context, v *orders.TrackedOrder, r *CycleReport) bool {
	if err := e.gw.CancelOrder(ctx, e.pair, v.ID); err != nil {
		if !exchange.IsNotFound(err) {
			slog.Warn("could not cancel order (will retry)", "pair", e.pair, "order", v, "err", err)
			r.Failures = append(r.Failures, fmt.Sprintf("could not cancel order %s: %v", v.ID, err))
			return false
		}
		slog.Info("order to cancel is already gone (dropped)", "pair", e.pair, "order", v)
	}
	e.set.Remove(v.ID)
	return true
}

func (e *Engine) fillLadder(ctx context.Context, cfg *config.Config, side exchange.Side, quote *exchange.Quote, r *CycleReport) {
	prices, err := ladder.Generate(quote.Mid(), side, cfg.LevelDistance, cfg.LevelCount, cfg.MaxLevels)
	if err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("could not generate %s ladder: %v", side, err))
		return
	}

	for level, target := range prices {
		if _, ok := e.set.At(side, level); ok {
			continue
		}
		price, size, err := exchange.Quantize(e.gw, e.pair, target, cfg.OrderSize)
		if err != nil {
			r.Failures = append(r.Failures, fmt.Sprintf("could not quantize %s level %d: %v", side, level, err))
			continue
		}
		if !price.IsPositive() || !size.IsPositive() {
			r.Failures = append(r.Failures, fmt.Sprintf("%s level %d rounds to zero (%s@%s)", side, level, size, price))
			continue
		}

		clientID := e.ids.NextClientID()
		remote, err := e.gw.PlaceOrder(ctx, e.pair, clientID, side, price, size)
		if err != nil {
			if exchange.IsRejected(err) {
				e.ids.RevertID()
			} else {
				e.unconfirmed[clientID] = &orders.TrackedOrder{
					ClientOrderID: clientID,
					Side:          string(side),
					Price:         price,
					Quantity:      size,
					PlacedAt:      e.opts.Now(),
					LevelIndex:    level,
				}
			}
			slog.Warn("could not place order", "pair", e.pair, "side", side, "level", level, "price", price, "size", size, "err", err)
			r.Failures = append(r.Failures, fmt.Sprintf("could not place %s level %d: %v", side, level, err))
			continue
		}

		order := &orders.TrackedOrder{
			ID:            remote.ID,
			ClientOrderID: clientID,
			Side:          string(side),
			Price:         price,
			Quantity:      size,
			PlacedAt:      e.opts.Now(),
			LevelIndex:    level,
		}
		if err := e.set.Add(order); err != nil {
			slog.Error("could not track placed order", "pair", e.pair, "order", order, "err", err)
			r.Failures = append(r.Failures, fmt.Sprintf("could not track order %s: %v", remote.ID, err))
			continue
		}
		r.Placed++
	}
}
