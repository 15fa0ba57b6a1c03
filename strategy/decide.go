// Copyright (c) 2024 BVK Chaitanya

// Package strategy implements the side, size and delay selection policies of
// the volume trading loop.
package strategy

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
	"github.com/shopspring/decimal"
)

// Decision is the next trade to execute and the pause that follows it.
type Decision struct {
	Side  exchange.Side
	Size  decimal.Decimal
	Price decimal.Decimal
	Delay time.Duration

	// Burst is non-nil when the trade belongs to a burst. It is a new burst
	// when the state is idle.
	Burst *gobs.BurstState

	// Flipped is true if the variant's choice was reversed to honor the
	// consecutive side limit.
	Flipped bool
}

func (d *Decision) String() string {
	return fmt.Sprintf("%s:%s@%s+%s", d.Side, d.Size, d.Price, d.Delay)
}

func (d *Decision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("side", string(d.Side)),
		slog.String("size", d.Size.String()),
		slog.String("price", d.Price.String()),
		slog.Duration("delay", d.Delay),
		slog.Bool("burst", d.Burst != nil),
		slog.Bool("flipped", d.Flipped))
}

// Decide picks the next trade for the state. It doesn't modify the state;
// executed trades are folded back with Record.
func Decide(s *State, p *Params, quote *exchange.Quote, rng *rand.Rand) (*Decision, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	if err := quote.Check(); err != nil {
		return nil, err
	}
	if p.Variant == HighVolumeBurst {
		return decideBurst(s, p, quote, rng), nil
	}

	d := &Decision{
		Size:  uniformDecimal(rng, p.MinSize, p.MaxSize),
		Delay: uniformDuration(rng, p.IntervalMin, p.IntervalMax),
	}
	d.Side, d.Flipped = limitConsecutive(s, p, chooseSide(s, p, rng))

	switch p.Variant {
	case SmartSpread:
		if d.Side == exchange.Buy {
			d.Price = quote.Bid
		} else {
			d.Price = quote.Ask
		}
	default:
		d.Price = quote.Mid()
	}
	return d, nil
}

func chooseSide(s *State, p *Params, rng *rand.Rand) exchange.Side {
	switch p.Variant {
	case Balanced:
		return minoritySide(s, p.BalanceWindow, rng)
	case Alternating:
		if last, ok := s.LastSide(); ok {
			return last.Opposite()
		}
		return randomSide(rng)
	case BuyHeavy:
		return weightedSide(rng, 0.7)
	case SellHeavy:
		return weightedSide(rng, 0.3)
	default:
		return randomSide(rng)
	}
}

// limitConsecutive flips the side when choosing it would repeat the tail side
// more than MaxConsecutiveSide times.
func limitConsecutive(s *State, p *Params, side exchange.Side) (exchange.Side, bool) {
	tail, n := s.ConsecutiveSameSide()
	if tail == side && n >= p.MaxConsecutiveSide {
		return side.Opposite(), true
	}
	return side, false
}

// minoritySide returns the side that minimizes the buy/sell imbalance over the
// window. Ties are broken randomly.
func minoritySide(s *State, window int, rng *rand.Rand) exchange.Side {
	buys, sells := s.Counts(window)
	switch {
	case buys < sells:
		return exchange.Buy
	case sells < buys:
		return exchange.Sell
	}
	return randomSide(rng)
}

func randomSide(rng *rand.Rand) exchange.Side {
	return weightedSide(rng, 0.5)
}

func weightedSide(rng *rand.Rand, buyProbability float64) exchange.Side {
	if rng.Float64() < buyProbability {
		return exchange.Buy
	}
	return exchange.Sell
}

func uniformDecimal(rng *rand.Rand, lo, hi decimal.Decimal) decimal.Decimal {
	if !hi.GreaterThan(lo) {
		return lo
	}
	return lo.Add(hi.Sub(lo).Mul(decimal.NewFromFloat(rng.Float64())))
}

func uniformDuration(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int64N(int64(hi-lo)+1))
}

// Record folds an executed trade into the state.
func Record(s *State, p *Params, side exchange.Side, size decimal.Decimal) {
	s.RecentSides = append(s.RecentSides, string(side))
	if w := p.Window(); len(s.RecentSides) > w {
		s.RecentSides = append([]string(nil), s.RecentSides[len(s.RecentSides)-w:]...)
	}
	s.CumulativeVolume = s.CumulativeVolume.Add(size)
	s.TradeCount++

	if s.Burst != nil {
		s.Burst.ExecutionsDone++
		s.Burst.Volume = s.Burst.Volume.Add(size)
		if burstDone(s.Burst) {
			slog.Info("burst is complete", "executions", s.Burst.ExecutionsDone, "volume", s.Burst.Volume, "target", s.Burst.TargetVolume)
			s.Burst = nil
			s.BurstCount++
		}
	}
}

// Begin installs the burst carried by a decision when the state is idle. It
// must be called before Record for the first trade of a burst.
func Begin(s *State, d *Decision) {
	if s.Burst == nil && d.Burst != nil {
		b := *d.Burst
		s.Burst = &b
	}
}
