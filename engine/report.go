// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"log/slog"
	"time"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/gobs"
	"github.com/shopspring/decimal"
)

// CycleReport summarizes one engine cycle.
type CycleReport struct {
	Pair string

	Start    time.Time
	Duration time.Duration

	Mid decimal.Decimal

	// Skipped holds the reason when the cycle was abandoned before any order
	// was touched.
	Skipped string

	Placed    int
	Cancelled int
	Repriced  int

	Orphaned   int
	Unexpected int

	// Adopted orders were placed by the engine but their placement replies
	// were lost.
	Adopted int

	// Trades executed by the volume loop.
	Trades int

	Failures []string

	// Delay before the next cycle.
	Delay time.Duration
}

// Failed returns true if the cycle was skipped or had any failures.
func (r *CycleReport) Failed() bool {
	return r.Skipped != "" || len(r.Failures) != 0
}

func (r *CycleReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("pair", r.Pair),
		slog.Duration("took", r.Duration),
		slog.String("mid", r.Mid.String()),
		slog.String("skipped", r.Skipped),
		slog.Int("placed", r.Placed),
		slog.Int("cancelled", r.Cancelled),
		slog.Int("repriced", r.Repriced),
		slog.Int("orphaned", r.Orphaned),
		slog.Int("unexpected", r.Unexpected),
		slog.Int("adopted", r.Adopted),
		slog.Int("trades", r.Trades),
		slog.Int("failures", len(r.Failures)))
}

// Status is a point in time copy of the engine state.
type Status struct {
	Pair string

	IsRunning bool

	Config config.Config

	// HasPendingConfig is true when an update waits for the next cycle.
	HasPendingConfig bool

	TrackedOrders []*gobs.TrackedOrder

	StrategyState *gobs.StrategyState

	LastReport *CycleReport

	CycleCount   int64
	FailedCycles int64

	// RecentFailures holds the latest failure messages, oldest first.
	RecentFailures []string
}
