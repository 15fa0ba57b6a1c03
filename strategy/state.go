// Copyright (c) 2024 BVK Chaitanya

package strategy

import (
	"log/slog"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
)

// State is the running state of one strategy instance. It is owned by a
// single volume loop.
type State gobs.StrategyState

func NewState() *State {
	return new(State)
}

// LastSide returns the most recent executed side, if any.
func (s *State) LastSide() (exchange.Side, bool) {
	if len(s.RecentSides) == 0 {
		return "", false
	}
	return exchange.Side(s.RecentSides[len(s.RecentSides)-1]), true
}

// ConsecutiveSameSide returns the side at the tail of recent sides and the
// number of times it repeats.
func (s *State) ConsecutiveSameSide() (exchange.Side, int) {
	last, ok := s.LastSide()
	if !ok {
		return "", 0
	}
	n := 0
	for i := len(s.RecentSides) - 1; i >= 0 && s.RecentSides[i] == string(last); i-- {
		n++
	}
	return last, n
}

// Counts returns the number of buys and sells in the last window entries.
func (s *State) Counts(window int) (buys, sells int) {
	sides := s.RecentSides
	if window > 0 && len(sides) > window {
		sides = sides[len(sides)-window:]
	}
	for _, v := range sides {
		if v == string(exchange.Buy) {
			buys++
		} else {
			sells++
		}
	}
	return
}

// IsBursting returns true while a burst is in progress.
func (s *State) IsBursting() bool {
	return s.Burst != nil
}

func (s *State) LogValue() slog.Value {
	side, n := s.ConsecutiveSameSide()
	return slog.GroupValue(
		slog.Int64("trades", s.TradeCount),
		slog.String("volume", s.CumulativeVolume.String()),
		slog.String("tail", string(side)),
		slog.Int("tail-count", n),
		slog.Bool("bursting", s.IsBursting()))
}

// Reset clears the running totals and any active burst.
func (s *State) Reset() {
	*s = State{}
}
