// Copyright (c) 2025 BVK Chaitanya

package dex

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Credentials struct {
	// RPCURL is the EVM JSON-RPC endpoint.
	RPCURL string `json:"rpc_url"`

	// PrivateKey is the hex encoded secp256k1 key of the trading account.
	PrivateKey string `json:"private_key"`
}

func (v *Credentials) Check() error {
	if len(v.RPCURL) == 0 {
		return fmt.Errorf("rpc url cannot be empty: %w", os.ErrInvalid)
	}
	if len(v.PrivateKey) == 0 {
		return fmt.Errorf("private key cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

type Token struct {
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
}

// Market names the router and the two tokens of a trading pair. Buying swaps
// the quote token for the base token.
type Market struct {
	Router string `json:"router"`

	Base  Token `json:"base"`
	Quote Token `json:"quote"`
}

func (v *Market) Check() error {
	for _, addr := range []string{v.Router, v.Base.Address, v.Quote.Address} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid contract address %q: %w", addr, os.ErrInvalid)
		}
	}
	if v.Base.Decimals < 0 || v.Quote.Decimals < 0 {
		return fmt.Errorf("token decimals cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

type Options struct {
	// Markets maps pair names to their on-chain tokens.
	Markets map[string]*Market

	// SlippageBps is the max. tolerated shortfall of the swap output relative
	// to the decided price, in basis points.
	SlippageBps int64

	// Deadline is added to the current time for the swap deadline.
	Deadline time.Duration
}

func (v *Options) setDefaults() {
	if v.SlippageBps == 0 {
		v.SlippageBps = 50
	}
	if v.Deadline == 0 {
		v.Deadline = 2 * time.Minute
	}
}

func (v *Options) Check() error {
	if v.SlippageBps < 0 || v.SlippageBps >= 10000 {
		return fmt.Errorf("slippage must be within [0, 10000) bps: %w", os.ErrInvalid)
	}
	for pair, m := range v.Markets {
		if err := m.Check(); err != nil {
			return fmt.Errorf("market %q: %w", pair, err)
		}
	}
	return nil
}
