// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/ladderbot/dex"
	"github.com/visvasity/cli"
)

type EVM struct {
	dataDir     string
	skipTesting bool
	rpcURL      string
	privateKey  string
}

func (c *EVM) Purpose() string {
	return "Setup configures the EVM account for on-chain volume trades"
}

func (c *EVM) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("evm", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.rpcURL, "rpc-url", "", "JSON-RPC endpoint of the chain")
	fset.StringVar(&c.privateKey, "private-key", "", "hex encoded private key of the trading account (prompted when empty)")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return "evm", fset, cli.CmdFunc(c.run)
}

func (c *EVM) Description() string {
	return `

Command "evm" configures the account used to execute volume mode trades as
token swaps on a decentralized exchange. Token addresses of the pairs are
listed under the "dex-markets" key of the secrets file.

  $ ladderbot setup evm --rpc-url=https://... --private-key=0x...

`
}

func (c *EVM) run(ctx context.Context, args []string) error {
	if len(c.privateKey) == 0 {
		v, err := readHidden("Private key: ")
		if err != nil {
			return err
		}
		c.privateKey = v
	}
	creds := &dex.Credentials{
		RPCURL:     c.rpcURL,
		PrivateKey: c.privateKey,
	}
	if err := creds.Check(); err != nil {
		return err
	}

	secretsPath, secrets, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}
	secrets.EVM = creds

	if !c.skipTesting {
		ex, err := dex.New(ctx, creds, &dex.Options{Markets: secrets.DEXMarkets})
		if err != nil {
			return fmt.Errorf("could not connect to the rpc endpoint: %w", err)
		}
		defer ex.Close()
		fmt.Fprintf(cli.Stdout(ctx), "using account %s\n", ex.Address())
	}
	if len(secrets.DEXMarkets) == 0 {
		fmt.Fprintf(os.Stderr, "no dex markets are configured in %s\n", secretsPath)
	}
	return saveSecrets(secretsPath, secrets)
}
