// Copyright (c) 2024 BVK Chaitanya

// Package config defines the per-pair engine configuration. Config values are
// immutable once validated; updates produce new values through Partial.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/ladderbot/gobs"
	"github.com/bvk/ladderbot/strategy"
	"github.com/shopspring/decimal"
)

// ErrConfigInvalid is wrapped by all validation errors. It matches
// os.ErrInvalid with errors.Is.
var ErrConfigInvalid = fmt.Errorf("invalid config: %w", os.ErrInvalid)

const (
	MarketMaking = "market-making"
	Volume       = "volume"
)

const (
	DefaultMaxLevels          = 20
	DefaultMinRebalanceAge    = 2 * time.Minute
	DefaultCycleInterval      = 30 * time.Second
	DefaultMaxConsecutiveSide = 3
	DefaultBalanceWindow      = 10
)

var hundred = decimal.NewFromInt(100)

type Config gobs.PairConfig

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = MarketMaking
	}
	if c.MaxLevels == 0 {
		c.MaxLevels = DefaultMaxLevels
	}
	if c.MinRebalanceAge == 0 {
		c.MinRebalanceAge = DefaultMinRebalanceAge
	}
	if c.CycleInterval == 0 {
		c.CycleInterval = DefaultCycleInterval
	}
	if c.Mode == Volume && c.Variant == "" {
		c.Variant = string(strategy.Random)
	}
	if c.IntervalMin == 0 && c.IntervalMax == 0 {
		c.IntervalMin, c.IntervalMax = 5*time.Second, 30*time.Second
	}
	if c.CycleIntervalMin == 0 && c.CycleIntervalMax == 0 {
		c.CycleIntervalMin, c.CycleIntervalMax = time.Minute, 5*time.Minute
	}
	if c.MaxConsecutiveSide == 0 {
		c.MaxConsecutiveSide = DefaultMaxConsecutiveSide
	}
	if c.BalanceWindow == 0 {
		c.BalanceWindow = DefaultBalanceWindow
	}
	if c.BurstMicroDelayMin == 0 && c.BurstMicroDelayMax == 0 {
		c.BurstMicroDelayMin, c.BurstMicroDelayMax = time.Second, 5*time.Second
	}
}

// Check validates the configuration. All errors wrap ErrConfigInvalid.
func (c *Config) Check() error {
	if err := c.check(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfigInvalid, c.Pair, err)
	}
	return nil
}

func (c *Config) check() error {
	if len(c.Pair) == 0 {
		return errors.New("pair name cannot be empty")
	}
	switch c.Mode {
	case MarketMaking:
		return c.checkMarketMaking()
	case Volume:
		p := c.StrategyParams()
		return p.Check()
	}
	return fmt.Errorf("unknown mode %q", c.Mode)
}

func (c *Config) checkMarketMaking() error {
	if !c.LevelDistance.IsPositive() {
		return errors.New("level distance must be positive")
	}
	if c.LevelCount < 0 {
		return errors.New("level count cannot be negative")
	}
	if c.MaxLevels < 1 {
		return errors.New("max levels must be at least one")
	}
	if c.LevelCount > c.MaxLevels {
		return fmt.Errorf("level count %d exceeds the max levels %d", c.LevelCount, c.MaxLevels)
	}
	if depth := c.LevelDistance.Mul(decimal.NewFromInt(int64(c.LevelCount))); depth.GreaterThanOrEqual(hundred) {
		return fmt.Errorf("ladder depth %s%% reaches zero buy price", depth)
	}
	if !c.OrderSize.IsPositive() {
		return errors.New("order size must be positive")
	}
	if !c.MaxRebalanceDistance.IsPositive() {
		return errors.New("max rebalance distance must be positive")
	}
	if c.MinRebalanceAge < 0 {
		return errors.New("min rebalance age cannot be negative")
	}
	if c.CycleInterval <= 0 {
		return errors.New("cycle interval must be positive")
	}
	return nil
}

func (c *Config) IsVolume() bool {
	return c.Mode == Volume
}

// StrategyParams returns the volume strategy inputs.
func (c *Config) StrategyParams() *strategy.Params {
	return &strategy.Params{
		Variant:               strategy.Variant(c.Variant),
		MinSize:               c.MinSize,
		MaxSize:               c.MaxSize,
		IntervalMin:           c.IntervalMin,
		IntervalMax:           c.IntervalMax,
		CycleIntervalMin:      c.CycleIntervalMin,
		CycleIntervalMax:      c.CycleIntervalMax,
		MaxConsecutiveSide:    c.MaxConsecutiveSide,
		BalanceWindow:         c.BalanceWindow,
		BurstMinVolume:        c.BurstMinVolume,
		BurstMaxVolume:        c.BurstMaxVolume,
		BurstMinExecutions:    c.BurstMinExecutions,
		BurstMaxExecutions:    c.BurstMaxExecutions,
		BurstMaxTradeSize:     c.BurstMaxTradeSize,
		BurstPriceSpreadUnits: c.BurstPriceSpreadUnits,
		BurstMicroDelayMin:    c.BurstMicroDelayMin,
		BurstMicroDelayMax:    c.BurstMicroDelayMax,
	}
}

func (c *Config) LogValue() slog.Value {
	if c.IsVolume() {
		return slog.GroupValue(
			slog.String("pair", c.Pair),
			slog.String("mode", c.Mode),
			slog.String("variant", c.Variant),
			slog.Bool("monitoring", c.MonitoringMode))
	}
	return slog.GroupValue(
		slog.String("pair", c.Pair),
		slog.String("mode", c.Mode),
		slog.String("distance", c.LevelDistance.String()),
		slog.Int("levels", c.LevelCount),
		slog.String("size", c.OrderSize.String()),
		slog.String("max-rebalance-distance", c.MaxRebalanceDistance.String()),
		slog.Duration("min-rebalance-age", c.MinRebalanceAge),
		slog.Duration("interval", c.CycleInterval))
}
