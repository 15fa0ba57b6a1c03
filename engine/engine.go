// Copyright (c) 2024 BVK Chaitanya

// Package engine runs the order lifecycle of a single trading pair. An engine
// runs one cycle at a time: it reconciles the tracked orders with the
// exchange, reprices the stale ones and fills the empty ladder rungs, or in
// volume mode, executes one strategy decision.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/ctxutil"
	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
	"github.com/bvk/ladderbot/idgen"
	"github.com/bvk/ladderbot/orders"
	"github.com/bvk/ladderbot/strategy"
	"github.com/visvasity/topic"
)

var (
	ErrRunning       = fmt.Errorf("engine is running: %w", os.ErrExist)
	ErrNotRunning    = fmt.Errorf("engine is not running: %w", os.ErrClosed)
	ErrNotConfigured = fmt.Errorf("engine has no config: %w", os.ErrNotExist)
)

type Engine struct {
	pair string
	gw   exchange.Gateway
	opts Options

	// stopMu serializes Stop calls.
	stopMu sync.Mutex

	mu      sync.Mutex
	running bool
	cg      *ctxutil.CloseGroup

	cfg     atomic.Pointer[config.Config]
	pending atomic.Pointer[config.Config]

	// Fields below are owned by the running cycle.
	set          *orders.Set
	unconfirmed  map[string]*orders.TrackedOrder
	strat        *strategy.State
	ids          *idgen.Generator
	cycleCount   int64
	failedCycles int64
	failures     []string
	lastReport   *CycleReport

	wasRunning bool

	status  atomic.Pointer[Status]
	reports *topic.Topic[*CycleReport]
}

// New creates an engine for the pair. Saved state for the pair, if any, is
// loaded from the database.
func New(ctx context.Context, pair string, gw exchange.Gateway, opts *Options) (*Engine, error) {
	if len(pair) == 0 {
		return nil, fmt.Errorf("pair name cannot be empty: %w", os.ErrInvalid)
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway cannot be nil: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	e := &Engine{
		pair:        pair,
		gw:          gw,
		opts:        *opts,
		set:         orders.NewSet(),
		unconfirmed: make(map[string]*orders.TrackedOrder),
		strat:       strategy.NewState(),
		reports:     topic.New[*CycleReport](),
	}
	if e.opts.Executor == nil {
		e.opts.Executor = gatewayExecutor{e: e}
	}

	var offset uint64
	if opts.DB != nil {
		state, err := Load(ctx, opts.DB, pair)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not load saved state for %q: %w", pair, err)
		}
		if state != nil {
			set, err := orders.Restore(state.TrackedOrders)
			if err != nil {
				slog.Warn("some saved orders could not be restored (ignored)", "pair", pair, "err", err)
			}
			e.set = set
			for _, v := range state.UnconfirmedOrders {
				e.unconfirmed[v.ClientOrderID] = (*orders.TrackedOrder)(v)
			}
			if state.Strategy != nil {
				e.strat = (*strategy.State)(state.Strategy)
			}
			cfg := config.Config(state.Config)
			e.cfg.Store(&cfg)
			e.cycleCount = state.CycleCount
			e.wasRunning = state.Running
			offset = state.IDOffset
		}
	}
	e.ids = idgen.New(pair, offset)
	e.publishStatus()
	return e, nil
}

// Close releases the report topic. Engine must be stopped already.
func (e *Engine) Close() error {
	e.reports.Close()
	return nil
}

func (e *Engine) Pair() string {
	return e.pair
}

// WasRunning returns true if the saved state loaded by New was running.
func (e *Engine) WasRunning() bool {
	return e.wasRunning
}

// Config returns the active config or nil.
func (e *Engine) Config() *config.Config {
	if c := e.cfg.Load(); c != nil {
		v := *c
		return &v
	}
	return nil
}

// Reports returns the topic that receives a report after every cycle.
func (e *Engine) Reports() *topic.Topic[*CycleReport] {
	return e.reports
}

func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Configure sets the config of a stopped engine.
func (e *Engine) Configure(ctx context.Context, cfg config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}
	if err := e.checkConfig(&cfg); err != nil {
		return err
	}
	e.cfg.Store(&cfg)
	e.pending.Store(nil)
	if err := e.save(ctx, false); err != nil {
		return err
	}
	e.publishStatus()
	return nil
}

func (e *Engine) checkConfig(cfg *config.Config) error {
	if err := cfg.Check(); err != nil {
		return err
	}
	if cfg.Pair != e.pair {
		return fmt.Errorf("%w: config pair %q doesn't match the engine pair %q", config.ErrConfigInvalid, cfg.Pair, e.pair)
	}
	if old := e.cfg.Load(); old != nil && old.Mode != cfg.Mode && e.set.Len() != 0 {
		return fmt.Errorf("%w: mode cannot change while %d orders are tracked", config.ErrConfigInvalid, e.set.Len())
	}
	return nil
}

// Start validates the config and starts the cycle loop in the background. An
// invalid config is rejected before any exchange call is made.
func (e *Engine) Start(ctx context.Context, cfg config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}
	if err := e.checkConfig(&cfg); err != nil {
		return err
	}
	e.cfg.Store(&cfg)
	e.pending.Store(nil)
	if err := e.save(ctx, true); err != nil {
		return fmt.Errorf("could not save engine state: %w", err)
	}
	e.publishStatus()

	e.running = true
	e.cg = new(ctxutil.CloseGroup)
	e.cg.Go(e.loop)
	slog.Info("started engine", "config", &cfg)
	return nil
}

// Stop waits for the in-flight cycle to finish and stops the loop. Open orders
// are left on the exchange unless the config has CancelOnStop set. A config
// update that is still pending is applied before the state is saved. If ctx
// expires first, Stop returns the context error and the engine finishes
// stopping in the background.
func (e *Engine) Stop(ctx context.Context) error {
	return e.stop(ctx, false)
}

// Shutdown stops the loop like Stop, but the saved state stays marked as
// running so that the engine is resumed on the next start. Orders are never
// canceled.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.stop(ctx, true)
}

func (e *Engine) stop(ctx context.Context, resume bool) error {
	e.stopMu.Lock()

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.stopMu.Unlock()
		return ErrNotRunning
	}
	cg := e.cg
	e.mu.Unlock()

	// stopMu is held until the state transition is complete, even when the
	// caller gives up waiting.
	donec := make(chan struct{})
	go func() {
		defer e.stopMu.Unlock()
		defer close(donec)

		cg.Close()
		e.finishStop(resume)
	}()

	select {
	case <-ctx.Done():
		slog.Warn("engine is still stopping in the background", "pair", e.pair, "err", context.Cause(ctx))
		return context.Cause(ctx)
	case <-donec:
		return nil
	}
}

func (e *Engine) finishStop(resume bool) {
	ctx := context.Background()

	if p := e.pending.Swap(nil); p != nil {
		e.cfg.Store(p)
		slog.Info("pending config update is applied on stop", "pair", e.pair)
	}
	if cfg := e.cfg.Load(); cfg.CancelOnStop && !resume {
		e.cancelAll(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// UpdateConfig may have raced with the cancellations above.
	if p := e.pending.Swap(nil); p != nil {
		e.cfg.Store(p)
	}
	e.running = false
	e.cg = nil
	e.wasRunning = resume
	if err := e.save(ctx, resume); err != nil {
		slog.Error("could not save engine state after stop", "pair", e.pair, "err", err)
	}
	e.publishStatus()
	slog.Info("stopped engine", "pair", e.pair, "resume", resume)
}

// UpdateConfig validates the update immediately and applies it at the start
// of the next cycle. A stopped engine takes the update right away.
func (e *Engine) UpdateConfig(ctx context.Context, p *config.Partial) (*config.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	base := e.pending.Load()
	if base == nil {
		base = e.cfg.Load()
	}
	if base == nil {
		return nil, ErrNotConfigured
	}
	cfg, err := p.Apply(*base)
	if err != nil {
		return nil, err
	}

	if e.running {
		e.pending.Store(&cfg)
		slog.Info("config update is scheduled for the next cycle", "pair", e.pair, "update", p)
		return &cfg, nil
	}

	e.cfg.Store(&cfg)
	if err := e.save(ctx, false); err != nil {
		return nil, err
	}
	e.publishStatus()
	slog.Info("config is updated", "pair", e.pair, "update", p)
	return &cfg, nil
}

// Status returns a copy of the latest engine status.
func (e *Engine) Status() *Status {
	s := *e.status.Load()
	s.IsRunning = e.IsRunning()
	s.HasPendingConfig = e.pending.Load() != nil
	return &s
}

// RunCycle runs a single cycle synchronously on a stopped engine.
func (e *Engine) RunCycle(ctx context.Context) (*CycleReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil, ErrRunning
	}
	if e.cfg.Load() == nil {
		return nil, ErrNotConfigured
	}
	return e.runCycle(ctx, false), nil
}

func (e *Engine) loop(ctx context.Context) {
	for ctx.Err() == nil {
		// In-flight cycles are never canceled.
		report := e.runCycle(context.WithoutCancel(ctx), true)
		if err := ctxutil.Sleep(ctx, report.Delay); err != nil {
			return
		}
	}
}

// cancelAll cancels every tracked order once. Orders that could not be
// canceled stay tracked.
func (e *Engine) cancelAll(ctx context.Context) {
	for _, v := range e.set.Orders() {
		if err := e.gw.CancelOrder(ctx, e.pair, v.ID); err != nil && !exchange.IsNotFound(err) {
			slog.Error("could not cancel order on stop", "pair", e.pair, "order", v, "err", err)
			continue
		}
		e.set.Remove(v.ID)
	}
}

func (e *Engine) strategySnapshot() *gobs.StrategyState {
	s := gobs.StrategyState(*e.strat)
	s.RecentSides = slices.Clone(s.RecentSides)
	if s.Burst != nil {
		b := *s.Burst
		s.Burst = &b
	}
	return &s
}

func (e *Engine) publishStatus() {
	s := &Status{
		Pair:           e.pair,
		TrackedOrders:  e.set.Snapshot(),
		StrategyState:  e.strategySnapshot(),
		LastReport:     e.lastReport,
		CycleCount:     e.cycleCount,
		FailedCycles:   e.failedCycles,
		RecentFailures: slices.Clone(e.failures),
	}
	if c := e.cfg.Load(); c != nil {
		s.Config = *c
	}
	e.status.Store(s)
}
