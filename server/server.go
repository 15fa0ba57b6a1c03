// Copyright (c) 2023 BVK Chaitanya

// Package server hosts one engine per trading pair and exposes them over the
// HTTP control API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bvk/ladderbot/coinex"
	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/ctxutil"
	"github.com/bvk/ladderbot/dex"
	"github.com/bvk/ladderbot/engine"
	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/telegram"
	"github.com/bvkgo/kv"
)

// preparer is implemented by gateways that need to load market details before
// trading a pair.
type preparer interface {
	Prepare(ctx context.Context, pairs ...string) error
}

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	secrets *Secrets

	gateway exchange.Gateway

	closers []func() error

	dexExecutor *dex.Executor

	telegramClient *telegram.Client

	alerts *alerter

	startTime time.Time

	mu sync.Mutex

	engineMap map[string]*engine.Engine
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if secrets == nil {
		secrets = new(Secrets)
	}
	if err := secrets.Check(); err != nil {
		return nil, fmt.Errorf("invalid secrets: %w", err)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	s := &Server{
		opts:      *opts,
		db:        db,
		secrets:   secrets,
		gateway:   opts.Gateway,
		startTime: time.Now(),
		engineMap: make(map[string]*engine.Engine),
	}
	defer func() {
		if status != nil {
			s.closeAll()
		}
	}()

	if s.gateway == nil {
		if secrets.CoinEx == nil {
			return nil, fmt.Errorf("no exchange credentials are configured: %w", os.ErrInvalid)
		}
		gw, err := coinex.New(secrets.CoinEx, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create coinex gateway: %w", err)
		}
		s.gateway = gw
		s.closers = append(s.closers, gw.Close)
	}

	if secrets.EVM != nil {
		ex, err := dex.New(ctx, secrets.EVM, &dex.Options{Markets: secrets.DEXMarkets})
		if err != nil {
			return nil, fmt.Errorf("could not create dex executor: %w", err)
		}
		slog.Info("using dex executor for volume trades", "account", ex.Address(), "markets", len(secrets.DEXMarkets))
		s.dexExecutor = ex
		s.closers = append(s.closers, ex.Close)
	}

	if secrets.Telegram != nil {
		client, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = client
		s.closers = append(s.closers, client.Close)

		if err := client.AddCommand(ctx, "status", "Prints the status of all pairs", s.statusTelegramCmd); err != nil {
			return nil, fmt.Errorf("could not add telegram status command: %w", err)
		}
	}

	s.alerts = newAlerter(opts.AlertAfterFailures, opts.AlertFreezeDuration, s.Alert)
	return s, nil
}

func (s *Server) closeAll() {
	s.cg.Close()

	s.mu.Lock()
	engines := s.engineMap
	s.engineMap = make(map[string]*engine.Engine)
	s.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("could not close server resource (ignored)", "err", err)
		}
	}
	s.closers = nil
}

// Close releases all resources. Engines must be stopped already.
func (s *Server) Close() error {
	s.closeAll()
	return nil
}

// Alert logs the message and sends it to the telegram users, if configured.
// An empty pair is used for alerts that are not about a pair.
func (s *Server) Alert(ctx context.Context, at time.Time, pair, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn("alert", "at", at, "pair", pair, "message", msg)
	if s.telegramClient != nil {
		if err := s.telegramClient.Notify(ctx, at, pair, msg); err != nil {
			slog.Error("could not send telegram message (ignored)", "err", err)
		}
	}
}

func (s *Server) getEngine(pair string) (*engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engineMap[pair]
	if !ok {
		return nil, fmt.Errorf("pair %q: %w", pair, os.ErrNotExist)
	}
	return e, nil
}

// getOrCreateEngine returns the engine for the pair. New engines load their
// saved state from the database and get a report watcher for alerts.
func (s *Server) getOrCreateEngine(ctx context.Context, pair string) (*engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engineMap[pair]; ok {
		return e, nil
	}

	eopts := &engine.Options{
		DB: s.db,
	}
	if s.dexExecutor != nil && s.dexExecutor.HasMarket(pair) {
		eopts.Executor = s.dexExecutor
	}
	e, err := engine.New(ctx, pair, s.gateway, eopts)
	if err != nil {
		return nil, fmt.Errorf("could not create engine for %q: %w", pair, err)
	}
	s.engineMap[pair] = e

	s.cg.Go(func(ctx context.Context) {
		if err := s.alerts.watch(ctx, e.Reports()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("report watcher has stopped", "pair", pair, "err", err)
		}
	})
	return e, nil
}

func (s *Server) prepare(ctx context.Context, pair string) error {
	if p, ok := s.gateway.(preparer); ok {
		if err := p.Prepare(ctx, pair); err != nil {
			return fmt.Errorf("could not prepare gateway for %q: %w", pair, err)
		}
	}
	return nil
}

// startPair validates the config, creates the engine if necessary and starts
// it. Invalid configs are rejected before any exchange call.
func (s *Server) startPair(ctx context.Context, cfg config.Config) (*engine.Engine, error) {
	cfg.SetDefaults()
	if err := config.ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	e, err := s.getOrCreateEngine(ctx, cfg.Pair)
	if err != nil {
		return nil, err
	}
	if e.IsRunning() {
		return nil, engine.ErrRunning
	}
	if err := s.prepare(ctx, cfg.Pair); err != nil {
		return nil, err
	}
	if err := e.Start(ctx, cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Start loads the saved engines, resumes the ones that were running at the
// last shutdown and starts the configured pairs. Configured pairs use the
// given config even when a saved config exists.
func (s *Server) Start(ctx context.Context) error {
	states, err := engine.LoadAll(ctx, s.db)
	if err != nil {
		return fmt.Errorf("could not load saved engine states: %w", err)
	}

	configured := make(map[string]*config.Config)
	for _, cfg := range s.opts.Pairs {
		configured[cfg.Pair] = cfg
	}

	var pairs []string
	for pair := range states {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	for _, pair := range pairs {
		e, err := s.getOrCreateEngine(ctx, pair)
		if err != nil {
			return err
		}
		if _, ok := configured[pair]; ok || s.opts.NoResume || !e.WasRunning() {
			continue
		}
		if _, err := s.startPair(ctx, *e.Config()); err != nil {
			slog.Error("could not resume engine (skipped)", "pair", pair, "err", err)
			continue
		}
		slog.Info("resumed engine", "pair", pair)
	}

	for _, cfg := range s.opts.Pairs {
		if _, err := s.startPair(ctx, *cfg); err != nil {
			slog.Error("could not start configured pair (skipped)", "pair", cfg.Pair, "err", err)
			continue
		}
	}
	return nil
}

// Stop stops all running engines. Stopped engines remain marked as running in
// the database so that they are resumed by the next Start.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	for _, e := range s.engines() {
		if !e.IsRunning() {
			continue
		}
		if err := e.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Pair(), err))
		}
	}
	return errors.Join(errs...)
}

// engines returns all engines sorted by the pair name.
func (s *Server) engines() []*engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var engines []*engine.Engine
	for _, e := range s.engineMap {
		engines = append(engines, e)
	}
	slices.SortFunc(engines, func(a, b *engine.Engine) int {
		if a.Pair() < b.Pair() {
			return -1
		}
		if a.Pair() > b.Pair() {
			return 1
		}
		return 0
	})
	return engines
}
