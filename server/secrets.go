// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bvk/ladderbot/coinex"
	"github.com/bvk/ladderbot/dex"
	"github.com/bvk/ladderbot/telegram"
)

// Environment variables that override the secrets file values.
const (
	EnvCoinExKey     = "LADDERBOT_COINEX_KEY"
	EnvCoinExSecret  = "LADDERBOT_COINEX_SECRET"
	EnvEVMRPCURL     = "LADDERBOT_EVM_RPC_URL"
	EnvEVMPrivateKey = "LADDERBOT_EVM_PRIVATE_KEY"
	EnvTelegramToken = "LADDERBOT_TELEGRAM_TOKEN"
	EnvTelegramOwner = "LADDERBOT_TELEGRAM_OWNER"
	EnvAPISigningKey = "LADDERBOT_API_KEY"
)

type Secrets struct {
	CoinEx *coinex.Credentials `json:"coinex"`

	EVM *dex.Credentials `json:"evm"`

	// DEXMarkets maps pair names to on-chain tokens. Volume mode trades for
	// these pairs are executed as swaps with the EVM account.
	DEXMarkets map[string]*dex.Market `json:"dex-markets"`

	Telegram *telegram.Secrets `json:"telegram"`

	// APIKey is the HS256 signing key for the control API bearer tokens. The
	// API is not authenticated when empty.
	APIKey string `json:"api-key"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("could not parse secrets file %q: %w", fpath, err)
	}
	return s, nil
}

// ApplyEnv overrides the secrets with non-empty environment variables.
func (v *Secrets) ApplyEnv() {
	env := func(name string, dst *string) {
		if x := os.Getenv(name); len(x) != 0 {
			*dst = x
		}
	}

	if os.Getenv(EnvCoinExKey) != "" || os.Getenv(EnvCoinExSecret) != "" {
		if v.CoinEx == nil {
			v.CoinEx = new(coinex.Credentials)
		}
		env(EnvCoinExKey, &v.CoinEx.Key)
		env(EnvCoinExSecret, &v.CoinEx.Secret)
	}
	if os.Getenv(EnvEVMRPCURL) != "" || os.Getenv(EnvEVMPrivateKey) != "" {
		if v.EVM == nil {
			v.EVM = new(dex.Credentials)
		}
		env(EnvEVMRPCURL, &v.EVM.RPCURL)
		env(EnvEVMPrivateKey, &v.EVM.PrivateKey)
	}
	if os.Getenv(EnvTelegramToken) != "" || os.Getenv(EnvTelegramOwner) != "" {
		if v.Telegram == nil {
			v.Telegram = new(telegram.Secrets)
		}
		env(EnvTelegramToken, &v.Telegram.BotToken)
		env(EnvTelegramOwner, &v.Telegram.OwnerID)
	}
	env(EnvAPISigningKey, &v.APIKey)
}

func (v *Secrets) Check() error {
	if v.CoinEx != nil {
		if err := v.CoinEx.Check(); err != nil {
			return fmt.Errorf("coinex: %w", err)
		}
	}
	if v.EVM != nil {
		if err := v.EVM.Check(); err != nil {
			return fmt.Errorf("evm: %w", err)
		}
	}
	if len(v.DEXMarkets) != 0 && v.EVM == nil {
		return fmt.Errorf("dex markets require evm credentials: %w", os.ErrInvalid)
	}
	for pair, m := range v.DEXMarkets {
		if err := m.Check(); err != nil {
			return fmt.Errorf("dex market %q: %w", pair, err)
		}
	}
	if v.Telegram != nil {
		if err := v.Telegram.Check(); err != nil {
			return err
		}
	}
	if len(v.APIKey) != 0 && len(v.APIKey) < 32 {
		return fmt.Errorf("api signing key must be at least 32 bytes: %w", os.ErrInvalid)
	}
	return nil
}
