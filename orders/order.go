// Copyright (c) 2023 BVK Chaitanya

package orders

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
)

// TrackedOrder is an order the engine believes to be open on the exchange.
type TrackedOrder gobs.TrackedOrder

func (v *TrackedOrder) IsBuy() bool {
	return exchange.Side(v.Side) == exchange.Buy
}

func (v *TrackedOrder) Key() Key {
	return Key{Side: exchange.Side(v.Side), Level: v.LevelIndex}
}

func (v *TrackedOrder) String() string {
	return fmt.Sprintf("%s:%s[%d]:%s@%s", v.ID, v.Side, v.LevelIndex, v.Quantity, v.Price)
}

func (v *TrackedOrder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", v.ID),
		slog.String("side", v.Side),
		slog.Int("level", v.LevelIndex),
		slog.String("price", v.Price.String()),
		slog.String("size", v.Quantity.String()),
		slog.Time("placed-at", v.PlacedAt))
}

// Age returns the time since the order was last placed or repriced.
func (v *TrackedOrder) Age(now time.Time) time.Duration {
	return now.Sub(v.PlacedAt)
}

func (v *TrackedOrder) Check() error {
	if len(v.ID) == 0 {
		return fmt.Errorf("order id cannot be empty")
	}
	if !exchange.Side(v.Side).IsValid() {
		return fmt.Errorf("invalid order side %q", v.Side)
	}
	if !v.Price.IsPositive() {
		return fmt.Errorf("order price must be positive")
	}
	if !v.Quantity.IsPositive() {
		return fmt.Errorf("order quantity must be positive")
	}
	if v.LevelIndex < 0 {
		return fmt.Errorf("level index cannot be negative")
	}
	if v.PlacedAt.IsZero() {
		return fmt.Errorf("placed-at time cannot be zero")
	}
	return nil
}
