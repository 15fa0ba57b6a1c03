// Copyright (c) 2023 BVK Chaitanya

// Package ladder generates target order prices around a reference price.
package ladder

import (
	"fmt"

	"github.com/bvk/ladderbot/exchange"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Generate returns levelCount target prices for the side, ordered from the
// closest to the farthest from the mid price. Level k is placed at
// mid*(1-d*(k+1)) for buys and mid*(1+d*(k+1)) for sells where d is the
// levelDistance percentage.
//
// Buy levels that would reach zero or below are not representable and the
// call fails, so callers are expected to bound distance*count below 100%.
func Generate(mid decimal.Decimal, side exchange.Side, levelDistance decimal.Decimal, levelCount, maxLevels int) ([]decimal.Decimal, error) {
	if !mid.IsPositive() {
		return nil, fmt.Errorf("mid price must be positive")
	}
	if !levelDistance.IsPositive() {
		return nil, fmt.Errorf("level distance must be positive")
	}
	if levelCount < 0 {
		return nil, fmt.Errorf("level count cannot be negative")
	}
	if maxLevels > 0 && levelCount > maxLevels {
		return nil, fmt.Errorf("level count %d exceeds the max levels %d", levelCount, maxLevels)
	}
	if !side.IsValid() {
		return nil, fmt.Errorf("invalid side %q", side)
	}

	step := levelDistance.Div(hundred)
	prices := make([]decimal.Decimal, 0, levelCount)
	for k := 0; k < levelCount; k++ {
		offset := step.Mul(decimal.NewFromInt(int64(k + 1)))
		var price decimal.Decimal
		if side == exchange.Buy {
			price = mid.Mul(decimal.NewFromInt(1).Sub(offset))
		} else {
			price = mid.Mul(decimal.NewFromInt(1).Add(offset))
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("buy level %d at %s%% distance is not above zero", k, offset.Mul(hundred))
		}
		prices = append(prices, price)
	}
	return prices, nil
}

// Price returns the target price for a single rung.
func Price(mid decimal.Decimal, side exchange.Side, levelDistance decimal.Decimal, level int) (decimal.Decimal, error) {
	prices, err := Generate(mid, side, levelDistance, level+1, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return prices[level], nil
}
