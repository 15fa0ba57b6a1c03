// Copyright (c) 2024 BVK Chaitanya

package simex

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

type Trade struct {
	Pair  string
	Side  exchange.Side
	Price decimal.Decimal
	Size  decimal.Decimal
}

// NoopExecutor records volume trades without executing them.
type NoopExecutor struct {
	mu     sync.Mutex
	trades []*Trade
}

func (v *NoopExecutor) Execute(ctx context.Context, pair string, side exchange.Side, price, size decimal.Decimal) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.trades = append(v.trades, &Trade{Pair: pair, Side: side, Price: price, Size: size})
	slog.Info("recorded monitoring mode trade", "pair", pair, "side", side, "price", price, "size", size)
	return fmt.Sprintf("noop-%d", len(v.trades)), nil
}

func (v *NoopExecutor) Trades() []*Trade {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.trades)
}
