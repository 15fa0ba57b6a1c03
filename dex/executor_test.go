// Copyright (c) 2025 BVK Chaitanya

package dex

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/bvk/ladderbot/exchange"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

var (
	testRouter = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testBase   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testQuote  = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

// fakeBackend quotes a constant price of 2000 quote (6 decimals) per base
// (18 decimals).
type fakeBackend struct {
	mu    sync.Mutex
	nonce uint64
	sent  []*types.Transaction
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := routerABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	amountIn := args[0].(*big.Int)
	path := args[1].([]common.Address)

	out := new(big.Int)
	if path[0] == testQuote {
		out.Mul(amountIn, big.NewInt(1e12))
		out.Div(out, big.NewInt(2000))
	} else {
		out.Mul(amountIn, big.NewInt(2000))
		out.Div(out, big.NewInt(1e12))
	}
	return method.Outputs.Pack([]*big.Int{amountIn, out})
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, _ common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, _ ethereum.CallMsg) (uint64, error) {
	return 150000, nil
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(8453), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonce++
	b.sent = append(b.sent, tx)
	return nil
}

func newTestExecutor(t *testing.T) (*Executor, *fakeBackend) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	opts := &Options{
		Markets: map[string]*Market{
			"WETH/USDC": {
				Router: testRouter.Hex(),
				Base:   Token{Address: testBase.Hex(), Decimals: 18},
				Quote:  Token{Address: testQuote.Hex(), Decimals: 6},
			},
		},
	}
	b := new(fakeBackend)
	e, err := newExecutor(b, "0x"+hex.EncodeToString(crypto.FromECDSA(key)), opts)
	if err != nil {
		t.Fatal(err)
	}
	return e, b
}

func TestBuySwap(t *testing.T) {
	e, b := newTestExecutor(t)

	ctx := context.Background()
	hash, err := e.Execute(ctx, "WETH/USDC", exchange.Buy, decimal.NewFromInt(2000), decimal.RequireFromString("0.5"))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 1, len(b.sent); want != got {
		t.Fatalf("want %d, got %d", want, got)
	}
	tx := b.sent[0]
	if want, got := hash, tx.Hash().Hex(); want != got {
		t.Fatalf("want %s, got %s", want, got)
	}
	if want, got := testRouter, *tx.To(); want != got {
		t.Fatalf("want %s, got %s", want, got)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(8453)), tx)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := e.Address(), sender; want != got {
		t.Fatalf("want %s, got %s", want, got)
	}

	method, err := routerABI.MethodById(tx.Data()[:4])
	if err != nil {
		t.Fatal(err)
	}
	if want, got := "swapExactTokensForTokens", method.Name; want != got {
		t.Fatalf("want %s, got %s", want, got)
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		t.Fatal(err)
	}
	// 1000 USDC in, at least 0.4975 WETH out with 50 bps slippage.
	if want, got := big.NewInt(1_000_000_000), args[0].(*big.Int); want.Cmp(got) != 0 {
		t.Fatalf("want %s, got %s", want, got)
	}
	if want, got := new(big.Int).Mul(big.NewInt(4975), big.NewInt(1e14)), args[1].(*big.Int); want.Cmp(got) != 0 {
		t.Fatalf("want %s, got %s", want, got)
	}
	if path := args[2].([]common.Address); len(path) != 2 || path[0] != testQuote || path[1] != testBase {
		t.Fatalf("unexpected swap path %v", path)
	}
	if want, got := e.Address(), args[3].(common.Address); want != got {
		t.Fatalf("want %s, got %s", want, got)
	}
}

func TestSellSwap(t *testing.T) {
	e, b := newTestExecutor(t)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := e.Execute(ctx, "WETH/USDC", exchange.Sell, decimal.NewFromInt(1990), decimal.NewFromInt(1)); err != nil {
			t.Fatal(err)
		}
	}
	if want, got := 2, len(b.sent); want != got {
		t.Fatalf("want %d, got %d", want, got)
	}
	if b.sent[0].Nonce() == b.sent[1].Nonce() {
		t.Fatalf("nonce was reused")
	}
}

func TestSlippageBound(t *testing.T) {
	e, b := newTestExecutor(t)

	// Router pays 2000 per base; a buy decided at 1900 expects more base
	// than the router gives.
	ctx := context.Background()
	if _, err := e.Execute(ctx, "WETH/USDC", exchange.Buy, decimal.NewFromInt(1900), decimal.RequireFromString("0.5")); !errors.Is(err, ErrSlippage) {
		t.Fatalf("want ErrSlippage, got %v", err)
	}
	if want, got := 0, len(b.sent); want != got {
		t.Fatalf("want %d, got %d", want, got)
	}

	if _, err := e.Execute(ctx, "BTC/USDC", exchange.Buy, decimal.NewFromInt(1), decimal.NewFromInt(1)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestInvalidOptions(t *testing.T) {
	opts := &Options{
		Markets: map[string]*Market{
			"WETH/USDC": {Router: "not-an-address"},
		},
	}
	if _, err := newExecutor(new(fakeBackend), "00", opts); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
}
