// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource supplies the best bid and ask for a trading pair.
type PriceSource interface {
	// GetMidPrice returns current quote for the pair. Errors are expected to
	// wrap ErrPriceUnavailable.
	GetMidPrice(ctx context.Context, pair string) (*Quote, error)
}

// OrderGateway places, cancels and lists limit orders on an exchange.
type OrderGateway interface {
	GetOpenOrders(ctx context.Context, pair string) ([]*RemoteOrder, error)

	// PlaceOrder creates a limit order. Price and quantity are expected to be
	// quantized with the Formatter already. Errors wrap ErrRejected only when
	// the order was not accepted.
	PlaceOrder(ctx context.Context, pair, clientOrderID string, side Side, price, quantity decimal.Decimal) (*RemoteOrder, error)

	// CancelOrder cancels an open order. Returns an error wrapping ErrNotFound
	// when the exchange doesn't know the order, which must be treated as the
	// order being gone already.
	CancelOrder(ctx context.Context, pair, orderID string) error
}

// Formatter quantizes prices and quantities to the exchange precision rules.
type Formatter interface {
	FormatPrice(pair string, v decimal.Decimal) string
	FormatQuantity(pair string, v decimal.Decimal) string
}

// Gateway is the complete set of exchange collaborators used by an engine.
type Gateway interface {
	PriceSource
	OrderGateway
	Formatter
}

// Quantize rounds price and quantity through the formatter and parses them
// back into decimals.
func Quantize(f Formatter, pair string, price, quantity decimal.Decimal) (p, q decimal.Decimal, err error) {
	p, err = decimal.NewFromString(f.FormatPrice(pair, price))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	q, err = decimal.NewFromString(f.FormatQuantity(pair, quantity))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return p, q, nil
}
