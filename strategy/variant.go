// Copyright (c) 2024 BVK Chaitanya

package strategy

import (
	"fmt"
	"strings"
)

// Variant names a side/size/delay selection policy for the volume loop.
type Variant string

const (
	Random          Variant = "RANDOM"
	Balanced        Variant = "BALANCED"
	Alternating     Variant = "ALTERNATING"
	SmartSpread     Variant = "SMART_SPREAD"
	BuyHeavy        Variant = "BUY_HEAVY"
	SellHeavy       Variant = "SELL_HEAVY"
	HighVolumeBurst Variant = "HIGH_VOLUME_BURST"
)

var Variants = []Variant{
	Random,
	Balanced,
	Alternating,
	SmartSpread,
	BuyHeavy,
	SellHeavy,
	HighVolumeBurst,
}

// ParseVariant accepts variant names in any case with dashes or underscores.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ReplaceAll(strings.ToUpper(s), "-", "_"))
	if !v.IsValid() {
		return "", fmt.Errorf("unknown strategy variant %q", s)
	}
	return v, nil
}

func (v Variant) IsValid() bool {
	switch v {
	case Random, Balanced, Alternating, SmartSpread, BuyHeavy, SellHeavy, HighVolumeBurst:
		return true
	}
	return false
}
