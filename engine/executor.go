// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

// TradeExecutor executes a single volume mode trade.
type TradeExecutor interface {
	Execute(ctx context.Context, pair string, side exchange.Side, price, size decimal.Decimal) (string, error)
}

type logExecutor struct{}

func (logExecutor) Execute(ctx context.Context, pair string, side exchange.Side, price, size decimal.Decimal) (string, error) {
	slog.Info("monitoring mode trade (not executed)", "pair", pair, "side", side, "price", price, "size", size)
	return "", nil
}

// gatewayExecutor executes trades as marketable limit orders through the
// gateway: buys at or above the ask and sells at or below the bid. Unfilled
// remainders are canceled right away, so only filled trades are recorded and
// no order is left resting on the book.
type gatewayExecutor struct {
	e *Engine
}

func (g gatewayExecutor) Execute(ctx context.Context, pair string, side exchange.Side, price, size decimal.Decimal) (string, error) {
	e := g.e
	g.sweep(ctx, pair)

	quote, err := e.gw.GetMidPrice(ctx, pair)
	if err != nil {
		return "", err
	}
	if side == exchange.Buy {
		price = decimal.Max(price, quote.Ask)
	} else {
		price = decimal.Min(price, quote.Bid)
	}
	price, size, err = exchange.Quantize(e.gw, pair, price, size)
	if err != nil {
		return "", err
	}

	clientID := e.ids.NextClientID()
	order, err := e.gw.PlaceOrder(ctx, pair, clientID, side, price, size)
	if err != nil {
		if exchange.IsRejected(err) {
			e.ids.RevertID()
		}
		return "", fmt.Errorf("could not place %s order for %s@%s: %w", side, size, price, err)
	}

	if err := e.gw.CancelOrder(ctx, pair, order.ID); err != nil {
		if exchange.IsNotFound(err) {
			return order.ID, nil
		}
		return "", fmt.Errorf("could not cancel the remainder of order %s (will retry): %w", order.ID, err)
	}
	return "", fmt.Errorf("%s order %s for %s@%s was not filled (canceled)", side, order.ID, size, price)
}

// sweep cancels open orders left behind by earlier trades: remainders that
// could not be canceled and placements with lost replies.
func (g gatewayExecutor) sweep(ctx context.Context, pair string) {
	e := g.e
	remote, err := e.gw.GetOpenOrders(ctx, pair)
	if err != nil {
		slog.Warn("could not list open orders to sweep (ignored)", "pair", pair, "err", err)
		return
	}
	for _, r := range remote {
		if r.ClientOrderID == "" {
			continue
		}
		if _, ok := e.ids.Lookup(r.ClientOrderID, idLookback, idLookahead); !ok {
			continue
		}
		if err := e.gw.CancelOrder(ctx, pair, r.ID); err != nil && !exchange.IsNotFound(err) {
			slog.Warn("could not cancel a leftover volume order (will retry)", "pair", pair, "order", r, "err", err)
			continue
		}
		slog.Info("canceled a leftover volume order", "pair", pair, "order", r)
	}
}
