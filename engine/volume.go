// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/strategy"
)

// volumeCycle executes one trade decided by the configured strategy variant.
// Strategy state only changes when the trade succeeds.
func (e *Engine) volumeCycle(ctx context.Context, cfg *config.Config, r *CycleReport) {
	r.Delay = cfg.IntervalMax

	quote, err := e.gw.GetMidPrice(ctx, e.pair)
	if err == nil {
		err = quote.Check()
	}
	if err != nil {
		r.Skipped = fmt.Sprintf("could not fetch price: %v", err)
		return
	}
	r.Mid = quote.Mid()

	params := cfg.StrategyParams()
	d, err := strategy.Decide(e.strat, params, quote, e.opts.Rand)
	if err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("could not decide next trade: %v", err))
		return
	}
	r.Delay = d.Delay

	price, size, err := exchange.Quantize(e.gw, e.pair, d.Price, d.Size)
	if err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("could not quantize trade %s: %v", d, err))
		return
	}
	if !price.IsPositive() || !size.IsPositive() {
		r.Failures = append(r.Failures, fmt.Sprintf("trade %s rounds to zero", d))
		return
	}

	executor := e.opts.Executor
	if cfg.MonitoringMode {
		executor = e.opts.Simulator
	}
	id, err := executor.Execute(ctx, e.pair, d.Side, price, size)
	if err != nil {
		slog.Warn("could not execute trade", "pair", e.pair, "decision", d, "err", err)
		r.Failures = append(r.Failures, fmt.Sprintf("could not execute trade %s: %v", d, err))
		return
	}

	strategy.Begin(e.strat, d)
	strategy.Record(e.strat, params, d.Side, size)
	r.Trades++
	slog.Info("executed trade", "pair", e.pair, "id", id, "decision", d, "monitoring", cfg.MonitoringMode, "strategy", e.strat)
}
