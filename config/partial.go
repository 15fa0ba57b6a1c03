// Copyright (c) 2024 BVK Chaitanya

package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Partial holds a configuration update. Nil fields are left unchanged. Pair and
// mode of a running engine cannot be changed.
type Partial struct {
	Variant *string `yaml:"variant,omitempty"`

	LevelDistance *decimal.Decimal `yaml:"level-distance,omitempty"`
	LevelCount    *int             `yaml:"level-count,omitempty"`
	MaxLevels     *int             `yaml:"max-levels,omitempty"`
	OrderSize     *decimal.Decimal `yaml:"order-size,omitempty"`

	MaxRebalanceDistance *decimal.Decimal `yaml:"max-rebalance-distance,omitempty"`
	MinRebalanceAge      *time.Duration   `yaml:"min-rebalance-age,omitempty"`
	CycleInterval        *time.Duration   `yaml:"cycle-interval,omitempty"`

	MinSize     *decimal.Decimal `yaml:"min-size,omitempty"`
	MaxSize     *decimal.Decimal `yaml:"max-size,omitempty"`
	IntervalMin *time.Duration   `yaml:"interval-min,omitempty"`
	IntervalMax *time.Duration   `yaml:"interval-max,omitempty"`

	CycleIntervalMin *time.Duration `yaml:"cycle-interval-min,omitempty"`
	CycleIntervalMax *time.Duration `yaml:"cycle-interval-max,omitempty"`

	MaxConsecutiveSide *int `yaml:"max-consecutive-side,omitempty"`
	BalanceWindow      *int `yaml:"balance-window,omitempty"`

	BurstMinVolume        *decimal.Decimal `yaml:"burst-min-volume,omitempty"`
	BurstMaxVolume        *decimal.Decimal `yaml:"burst-max-volume,omitempty"`
	BurstMinExecutions    *int             `yaml:"burst-min-executions,omitempty"`
	BurstMaxExecutions    *int             `yaml:"burst-max-executions,omitempty"`
	BurstMaxTradeSize     *decimal.Decimal `yaml:"burst-max-trade-size,omitempty"`
	BurstPriceSpreadUnits *decimal.Decimal `yaml:"burst-price-spread-units,omitempty"`
	BurstMicroDelayMin    *time.Duration   `yaml:"burst-micro-delay-min,omitempty"`
	BurstMicroDelayMax    *time.Duration   `yaml:"burst-micro-delay-max,omitempty"`

	MonitoringMode *bool `yaml:"monitoring-mode,omitempty"`
	CancelOnStop   *bool `yaml:"cancel-on-stop,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply returns a new config with the update applied. The input is not
// modified. Returns an error wrapping ErrConfigInvalid if the result is not
// valid.
func (p *Partial) Apply(c Config) (Config, error) {
	set(&c.Variant, p.Variant)
	set(&c.LevelDistance, p.LevelDistance)
	set(&c.LevelCount, p.LevelCount)
	set(&c.MaxLevels, p.MaxLevels)
	set(&c.OrderSize, p.OrderSize)
	set(&c.MaxRebalanceDistance, p.MaxRebalanceDistance)
	set(&c.MinRebalanceAge, p.MinRebalanceAge)
	set(&c.CycleInterval, p.CycleInterval)
	set(&c.MinSize, p.MinSize)
	set(&c.MaxSize, p.MaxSize)
	set(&c.IntervalMin, p.IntervalMin)
	set(&c.IntervalMax, p.IntervalMax)
	set(&c.CycleIntervalMin, p.CycleIntervalMin)
	set(&c.CycleIntervalMax, p.CycleIntervalMax)
	set(&c.MaxConsecutiveSide, p.MaxConsecutiveSide)
	set(&c.BalanceWindow, p.BalanceWindow)
	set(&c.BurstMinVolume, p.BurstMinVolume)
	set(&c.BurstMaxVolume, p.BurstMaxVolume)
	set(&c.BurstMinExecutions, p.BurstMinExecutions)
	set(&c.BurstMaxExecutions, p.BurstMaxExecutions)
	set(&c.BurstMaxTradeSize, p.BurstMaxTradeSize)
	set(&c.BurstPriceSpreadUnits, p.BurstPriceSpreadUnits)
	set(&c.BurstMicroDelayMin, p.BurstMicroDelayMin)
	set(&c.BurstMicroDelayMax, p.BurstMicroDelayMax)
	set(&c.MonitoringMode, p.MonitoringMode)
	set(&c.CancelOnStop, p.CancelOnStop)

	if err := c.Check(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DecodePartial parses a configuration update in YAML format. Unknown fields
// are rejected.
func DecodePartial(r io.Reader) (*Partial, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	p := new(Partial)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: could not decode config update: %w", ErrConfigInvalid, err)
	}
	return p, nil
}

// IsEmpty returns true if the update has no fields set.
func (p *Partial) IsEmpty() bool {
	return *p == Partial{}
}

// String is used in log messages.
func (p *Partial) String() string {
	var n int
	for _, ok := range []bool{
		p.Variant != nil, p.LevelDistance != nil, p.LevelCount != nil, p.MaxLevels != nil,
		p.OrderSize != nil, p.MaxRebalanceDistance != nil, p.MinRebalanceAge != nil,
		p.CycleInterval != nil, p.MinSize != nil, p.MaxSize != nil, p.IntervalMin != nil,
		p.IntervalMax != nil, p.CycleIntervalMin != nil, p.CycleIntervalMax != nil,
		p.MaxConsecutiveSide != nil, p.BalanceWindow != nil, p.BurstMinVolume != nil,
		p.BurstMaxVolume != nil, p.BurstMinExecutions != nil, p.BurstMaxExecutions != nil,
		p.BurstMaxTradeSize != nil, p.BurstPriceSpreadUnits != nil, p.BurstMicroDelayMin != nil,
		p.BurstMicroDelayMax != nil, p.MonitoringMode != nil, p.CancelOnStop != nil,
	} {
		if ok {
			n++
		}
	}
	return fmt.Sprintf("partial-config(%d fields)", n)
}
