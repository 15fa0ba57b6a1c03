// Copyright (c) 2024 BVK Chaitanya

package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Params holds the strategy inputs taken from a pair configuration.
type Params struct {
	Variant Variant

	MinSize decimal.Decimal
	MaxSize decimal.Decimal

	IntervalMin time.Duration
	IntervalMax time.Duration

	// CycleIntervalMin and CycleIntervalMax bound the pause between bursts.
	CycleIntervalMin time.Duration
	CycleIntervalMax time.Duration

	MaxConsecutiveSide int
	BalanceWindow      int

	BurstMinVolume     decimal.Decimal
	BurstMaxVolume     decimal.Decimal
	BurstMinExecutions int
	BurstMaxExecutions int

	// BurstMaxTradeSize is the absolute ceiling on a single burst trade.
	BurstMaxTradeSize decimal.Decimal

	// BurstPriceSpreadUnits bounds the absolute price offset from mid for
	// burst trades.
	BurstPriceSpreadUnits decimal.Decimal

	BurstMicroDelayMin time.Duration
	BurstMicroDelayMax time.Duration
}

// Window returns the number of recent sides to retain. Side balance is
// counted over the last BalanceWindow entries only.
func (p *Params) Window() int {
	return max(p.BalanceWindow, p.MaxConsecutiveSide, 1)
}

func (p *Params) Check() error {
	if !p.Variant.IsValid() {
		return fmt.Errorf("invalid strategy variant %q", p.Variant)
	}
	if p.MaxConsecutiveSide < 1 {
		return fmt.Errorf("max consecutive side must be at least one")
	}
	if p.BalanceWindow < 0 {
		return fmt.Errorf("balance window cannot be negative")
	}
	if err := checkDelays("interval", p.IntervalMin, p.IntervalMax); err != nil {
		return err
	}

	if p.Variant != HighVolumeBurst {
		if !p.MinSize.IsPositive() {
			return fmt.Errorf("min size must be positive")
		}
		if p.MaxSize.LessThan(p.MinSize) {
			return fmt.Errorf("max size %s cannot be less than the min size %s", p.MaxSize, p.MinSize)
		}
		return nil
	}

	if err := checkDelays("cycle interval", p.CycleIntervalMin, p.CycleIntervalMax); err != nil {
		return err
	}
	if err := checkDelays("burst micro delay", p.BurstMicroDelayMin, p.BurstMicroDelayMax); err != nil {
		return err
	}
	if !p.BurstMinVolume.IsPositive() {
		return fmt.Errorf("burst min volume must be positive")
	}
	if p.BurstMaxVolume.LessThan(p.BurstMinVolume) {
		return fmt.Errorf("burst max volume cannot be less than the burst min volume")
	}
	if p.BurstMinExecutions < 1 {
		return fmt.Errorf("burst min executions must be at least one")
	}
	if p.BurstMaxExecutions < p.BurstMinExecutions {
		return fmt.Errorf("burst max executions cannot be less than the burst min executions")
	}
	if !p.BurstMaxTradeSize.IsPositive() {
		return fmt.Errorf("burst max trade size must be positive")
	}
	if p.BurstPriceSpreadUnits.IsNegative() {
		return fmt.Errorf("burst price spread cannot be negative")
	}
	return nil
}

func checkDelays(name string, lo, hi time.Duration) error {
	if lo < 0 {
		return fmt.Errorf("%s min cannot be negative", name)
	}
	if hi < lo {
		return fmt.Errorf("%s max %s cannot be less than the min %s", name, hi, lo)
	}
	return nil
}
