// Copyright (c) 2023 BVK Chaitanya

// Package gobs defines the types persisted in the database with encoding/gob.
// Types in this package must remain backward compatible.
package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

type TrackedOrder struct {
	ID            string
	ClientOrderID string

	Side string

	Price    decimal.Decimal
	Quantity decimal.Decimal

	PlacedAt time.Time

	LevelIndex int
}

type BurstState struct {
	TargetVolume      decimal.Decimal
	ExecutionsPlanned int
	ExecutionsDone    int
	PriceSpreadUnits  decimal.Decimal

	PerTradeSize decimal.Decimal

	// Volume executed since the burst started.
	Volume decimal.Decimal
}

type StrategyState struct {
	RecentSides []string

	CumulativeVolume decimal.Decimal
	TradeCount       int64

	Burst *BurstState

	// Completed bursts since the last reset.
	BurstCount int64
}

type PairConfig struct {
	Pair    string `yaml:"pair"`
	Mode    string `yaml:"mode"`
	Variant string `yaml:"variant"`

	LevelDistance decimal.Decimal `yaml:"level-distance"`
	LevelCount    int             `yaml:"level-count"`
	MaxLevels     int             `yaml:"max-levels"`
	OrderSize     decimal.Decimal `yaml:"order-size"`

	MaxRebalanceDistance decimal.Decimal `yaml:"max-rebalance-distance"`
	MinRebalanceAge      time.Duration   `yaml:"min-rebalance-age"`
	CycleInterval        time.Duration   `yaml:"cycle-interval"`

	MinSize     decimal.Decimal `yaml:"min-size"`
	MaxSize     decimal.Decimal `yaml:"max-size"`
	IntervalMin time.Duration   `yaml:"interval-min"`
	IntervalMax time.Duration   `yaml:"interval-max"`

	CycleIntervalMin time.Duration `yaml:"cycle-interval-min"`
	CycleIntervalMax time.Duration `yaml:"cycle-interval-max"`

	MaxConsecutiveSide int `yaml:"max-consecutive-side"`
	BalanceWindow      int `yaml:"balance-window"`

	BurstMinVolume        decimal.Decimal `yaml:"burst-min-volume"`
	BurstMaxVolume        decimal.Decimal `yaml:"burst-max-volume"`
	BurstMinExecutions    int             `yaml:"burst-min-executions"`
	BurstMaxExecutions    int             `yaml:"burst-max-executions"`
	BurstMaxTradeSize     decimal.Decimal `yaml:"burst-max-trade-size"`
	BurstPriceSpreadUnits decimal.Decimal `yaml:"burst-price-spread-units"`
	BurstMicroDelayMin    time.Duration   `yaml:"burst-micro-delay-min"`
	BurstMicroDelayMax    time.Duration   `yaml:"burst-micro-delay-max"`

	MonitoringMode bool `yaml:"monitoring-mode"`
	CancelOnStop   bool `yaml:"cancel-on-stop"`
}

type EngineState struct {
	Config PairConfig

	Running bool

	TrackedOrders []*TrackedOrder

	// UnconfirmedOrders are placements with an unknown outcome. They have no
	// exchange order id yet.
	UnconfirmedOrders []*TrackedOrder

	Strategy *StrategyState

	// IDOffset is the client order id generator position.
	IDOffset uint64

	CycleCount int64
}

type TelegramState struct {
	UserChatIDMap map[string]int64

	// MutedPairs holds the pairs whose alerts are silenced from the chat.
	MutedPairs map[string]bool
}

// KeyValue is a database backup record.
type KeyValue struct {
	Key   string
	Value []byte
}
