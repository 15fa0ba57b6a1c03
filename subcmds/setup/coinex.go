// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/ladderbot/coinex"
	"github.com/visvasity/cli"
)

type CoinEx struct {
	dataDir     string
	skipTesting bool
	testPair    string
	key         string
	secret      string
}

func (c *CoinEx) Purpose() string {
	return "Setup configures CoinEx API access parameters"
}

func (c *CoinEx) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("coinex", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.key, "access-key", "", "CoinEx API access key as a string")
	fset.StringVar(&c.secret, "access-secret", "", "CoinEx API access secret (prompted when empty)")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	fset.StringVar(&c.testPair, "test-pair", "BTCUSDT", "market used to test the keys")
	return "coinex", fset, cli.CmdFunc(c.run)
}

func (c *CoinEx) Description() string {
	return `

Command "coinex" helps users configure CoinEx exchange API keys.

CoinEx API keys are required to query and put buy/sell orders on the CoinEx
exchange. They can be configured as follows:

  $ ladderbot setup coinex --access-key=xxxx --access-secret=yyyyy

`
}

func (c *CoinEx) run(ctx context.Context, args []string) error {
	if len(c.key) == 0 {
		return fmt.Errorf("--access-key flag is required: %w", os.ErrInvalid)
	}
	if len(c.secret) == 0 {
		v, err := readHidden("CoinEx API secret: ")
		if err != nil {
			return err
		}
		c.secret = v
	}
	if len(c.secret) == 0 {
		return fmt.Errorf("--access-secret flag is required: %w", os.ErrInvalid)
	}

	secretsPath, secrets, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}
	secrets.CoinEx = &coinex.Credentials{
		Key:    c.key,
		Secret: c.secret,
	}

	if !c.skipTesting {
		// Listing open orders needs a valid signature.
		gw, err := coinex.New(secrets.CoinEx, nil /* opts */)
		if err != nil {
			return err
		}
		defer gw.Close()

		if err := gw.Prepare(ctx, c.testPair); err != nil {
			return err
		}
		orders, err := gw.GetOpenOrders(ctx, c.testPair)
		if err != nil {
			return fmt.Errorf("could not authenticate with coinex: %w", err)
		}
		fmt.Fprintf(cli.Stdout(ctx), "found %d open orders in %s\n", len(orders), c.testPair)
	}
	return saveSecrets(secretsPath, secrets)
}
