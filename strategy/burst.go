// Copyright (c) 2024 BVK Chaitanya

package strategy

import (
	"math/rand/v2"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
	"github.com/shopspring/decimal"
)

func burstDone(b *gobs.BurstState) bool {
	return b.ExecutionsDone >= b.ExecutionsPlanned || b.Volume.GreaterThanOrEqual(b.TargetVolume)
}

// newBurst samples a burst target when the state goes from idle to bursting.
func newBurst(p *Params, rng *rand.Rand) *gobs.BurstState {
	target := uniformDecimal(rng, p.BurstMinVolume, p.BurstMaxVolume)
	planned := p.BurstMinExecutions + rng.IntN(p.BurstMaxExecutions-p.BurstMinExecutions+1)

	perTrade := target.Div(decimal.NewFromInt(int64(planned)))
	if perTrade.GreaterThan(p.BurstMaxTradeSize) {
		perTrade = p.BurstMaxTradeSize
	}
	return &gobs.BurstState{
		TargetVolume:      target,
		ExecutionsPlanned: planned,
		PriceSpreadUnits:  p.BurstPriceSpreadUnits,
		PerTradeSize:      perTrade,
		Volume:            decimal.Zero,
	}
}

func decideBurst(s *State, p *Params, quote *exchange.Quote, rng *rand.Rand) *Decision {
	burst := s.Burst
	if burst == nil {
		burst = newBurst(p, rng)
	}

	size := burst.PerTradeSize
	if remaining := burst.TargetVolume.Sub(burst.Volume); remaining.IsPositive() && remaining.LessThan(size) {
		size = remaining
	}

	// Burst trades alternate toward balance so the burst adds little net
	// exposure.
	side, flipped := limitConsecutive(s, p, minoritySide(s, p.BalanceWindow, rng))

	offset := decimal.Zero
	if spread := burst.PriceSpreadUnits; spread.IsPositive() {
		// uniform in [-spread, +spread]
		offset = uniformDecimal(rng, spread.Neg(), spread)
	}
	price := quote.Mid().Add(offset)
	if !price.IsPositive() {
		price = quote.Mid()
	}

	last := burst.ExecutionsDone+1 >= burst.ExecutionsPlanned || burst.Volume.Add(size).GreaterThanOrEqual(burst.TargetVolume)
	delay := uniformDuration(rng, p.BurstMicroDelayMin, p.BurstMicroDelayMax)
	if last {
		delay = uniformDuration(rng, p.CycleIntervalMin, p.CycleIntervalMax)
	}

	b := *burst
	return &Decision{
		Side:    side,
		Size:    size,
		Price:   price,
		Delay:   delay,
		Burst:   &b,
		Flipped: flipped,
	}
}
