// Copyright (c) 2025 BVK Chaitanya

// Package dex executes volume trades as token swaps on a UniswapV2-style
// router contract.
package dex

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bvk/ladderbot/exchange"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const routerABIJSON = `[
  {"name":"getAmountsOut","type":"function","stateMutability":"view",
   "inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],
   "outputs":[{"name":"amounts","type":"uint256[]"}]},
  {"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
   "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

var routerABI abi.ABI

func init() {
	v, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		panic(err)
	}
	routerABI = v
}

// ErrSlippage is returned when the router quote is worse than the decided
// price by more than the allowed slippage. No transaction is sent.
var ErrSlippage = fmt.Errorf("swap output is below the slippage bound: %w", os.ErrInvalid)

// Backend is the subset of the JSON-RPC client used by the executor.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Executor struct {
	opts Options

	backend Backend

	key  *ecdsa.PrivateKey
	from common.Address

	closer func()

	// mu serializes the swaps so that nonces are not reused.
	mu sync.Mutex

	chainID *big.Int

	now func() time.Time
}

// New dials the RPC endpoint and returns an executor for the account.
func New(ctx context.Context, creds *Credentials, opts *Options) (*Executor, error) {
	if err := creds.Check(); err != nil {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, creds.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("could not dial rpc endpoint: %w", err)
	}
	e, err := newExecutor(client, creds.PrivateKey, opts)
	if err != nil {
		client.Close()
		return nil, err
	}
	e.closer = client.Close
	return e, nil
}

func newExecutor(backend Backend, privateKey string, opts *Options) (*Executor, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	e := &Executor{
		opts:    *opts,
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		now:     time.Now,
	}
	return e, nil
}

func (e *Executor) Close() error {
	if e.closer != nil {
		e.closer()
	}
	return nil
}

// Address returns the trading account address.
func (e *Executor) Address() common.Address {
	return e.from
}

// HasMarket returns true if the pair has on-chain tokens configured.
func (e *Executor) HasMarket(pair string) bool {
	_, ok := e.opts.Markets[pair]
	return ok
}

func toUnits(v decimal.Decimal, decimals int32) *big.Int {
	return v.Shift(decimals).BigInt()
}

// Execute swaps tokens for one volume trade and returns the transaction
// hash. A buy spends size*price of the quote token. A sell spends size of the
// base token.
func (e *Executor) Execute(ctx context.Context, pair string, side exchange.Side, price, size decimal.Decimal) (string, error) {
	m, ok := e.opts.Markets[pair]
	if !ok {
		return "", fmt.Errorf("no dex market for pair %q: %w", pair, os.ErrNotExist)
	}
	if !price.IsPositive() || !size.IsPositive() {
		return "", fmt.Errorf("price and size must be positive: %w", os.ErrInvalid)
	}

	router := common.HexToAddress(m.Router)
	base, quote := common.HexToAddress(m.Base.Address), common.HexToAddress(m.Quote.Address)

	keep := decimal.NewFromInt(10000 - e.opts.SlippageBps).Div(decimal.NewFromInt(10000))

	var path []common.Address
	var amountIn, minOut *big.Int
	switch side {
	case exchange.Buy:
		path = []common.Address{quote, base}
		amountIn = toUnits(size.Mul(price), m.Quote.Decimals)
		minOut = toUnits(size.Mul(keep), m.Base.Decimals)
	case exchange.Sell:
		path = []common.Address{base, quote}
		amountIn = toUnits(size, m.Base.Decimals)
		minOut = toUnits(size.Mul(price).Mul(keep), m.Quote.Decimals)
	default:
		return "", fmt.Errorf("invalid side %q: %w", side, os.ErrInvalid)
	}

	expected, err := e.getAmountsOut(ctx, router, amountIn, path)
	if err != nil {
		return "", err
	}
	if expected.Cmp(minOut) < 0 {
		slog.Warn("dex quote is outside the slippage bound", "pair", pair, "side", side, "price", price, "size", size, "expected", expected, "min-out", minOut)
		return "", ErrSlippage
	}

	deadline := big.NewInt(e.now().Add(e.opts.Deadline).Unix())
	data, err := routerABI.Pack("swapExactTokensForTokens", amountIn, minOut, path, e.from, deadline)
	if err != nil {
		return "", fmt.Errorf("could not pack swap call: %w", err)
	}

	hash, err := e.send(ctx, router, data)
	if err != nil {
		return "", err
	}
	slog.Info("sent dex swap", "pair", pair, "side", side, "price", price, "size", size, "tx", hash)
	return hash, nil
}

func (e *Executor) getAmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	data, err := routerABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("could not pack quote call: %w", err)
	}
	result, err := e.backend.CallContract(ctx, ethereum.CallMsg{From: e.from, To: &router, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not call getAmountsOut: %w", err)
	}
	values, err := routerABI.Unpack("getAmountsOut", result)
	if err != nil {
		return nil, fmt.Errorf("could not unpack getAmountsOut result: %w", err)
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, fmt.Errorf("unexpected getAmountsOut result %v", values)
	}
	return amounts[len(amounts)-1], nil
}

func (e *Executor) send(ctx context.Context, to common.Address, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.chainID == nil {
		id, err := e.backend.ChainID(ctx)
		if err != nil {
			return "", fmt.Errorf("could not get chain id: %w", err)
		}
		e.chainID = id
	}

	nonce, err := e.backend.PendingNonceAt(ctx, e.from)
	if err != nil {
		return "", fmt.Errorf("could not get account nonce: %w", err)
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("could not get gas price: %w", err)
	}
	gas, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{From: e.from, To: &to, Data: data})
	if err != nil {
		return "", fmt.Errorf("could not estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      gas + gas/5,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return "", fmt.Errorf("could not sign transaction: %w", err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("could not send transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}
