// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts side names in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

var two = decimal.NewFromInt(2)

// Quote is a bid/ask snapshot for a pair.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

func (q *Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(two)
}

// Check returns an error if the quote cannot be used as a reference price.
func (q *Quote) Check() error {
	if !q.Bid.IsPositive() || !q.Ask.IsPositive() {
		return fmt.Errorf("bid and ask must be positive: %w", ErrPriceUnavailable)
	}
	if q.Bid.GreaterThan(q.Ask) {
		return fmt.Errorf("bid %s is above ask %s: %w", q.Bid, q.Ask, ErrPriceUnavailable)
	}
	return nil
}

func (q *Quote) String() string {
	return fmt.Sprintf("%s/%s", q.Bid, q.Ask)
}

func (q *Quote) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bid", q.Bid.String()),
		slog.String("ask", q.Ask.String()))
}

// RemoteOrder is an open order as reported by the exchange.
type RemoteOrder struct {
	ID            string
	ClientOrderID string

	Side     Side
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

func (v *RemoteOrder) String() string {
	return fmt.Sprintf("%s:%s:%s@%s", v.ID, v.Side, v.Quantity, v.Price)
}
