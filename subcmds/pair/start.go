// Copyright (c) 2025 BVK Chaitanya

package pair

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Start struct {
	cmdutil.ClientFlags

	configPath string
}

func (c *Start) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("start", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.configPath, "config", "", "path to the yaml configuration file")
	return "start", fset, cli.CmdFunc(c.run)
}

func (c *Start) Purpose() string {
	return "Starts or restarts trading pairs from a configuration file"
}

func (c *Start) Description() string {
	return `

Command "start" reads the pair configurations from a YAML file and starts the
pairs named in the arguments. All pairs from the file are started when no
arguments are given.

    $ ladderbot pair start -config pairs.yaml BTCUSDT

`
}

func (c *Start) run(ctx context.Context, args []string) error {
	if len(c.configPath) == 0 {
		return fmt.Errorf("config file path is required: %w", os.ErrInvalid)
	}
	cs, err := config.LoadFile(c.configPath)
	if err != nil {
		return err
	}

	var selected []*config.Config
	for _, cfg := range cs {
		if len(args) == 0 || slices.Contains(args, cfg.Pair) {
			selected = append(selected, cfg)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("no matching pairs in the configuration file: %w", os.ErrNotExist)
	}

	stdout := cli.Stdout(ctx)
	for _, cfg := range selected {
		req := &api.PairStartRequest{Config: cfg}
		resp, err := cmdutil.Post[api.PairStartResponse](ctx, &c.ClientFlags, api.PairStartPath, req)
		if err != nil {
			return fmt.Errorf("could not start pair %q: %w", cfg.Pair, err)
		}
		fmt.Fprintf(stdout, "%s: running=%t orders=%d\n", resp.Status.Pair, resp.Status.IsRunning, len(resp.Status.TrackedOrders))
	}
	return nil
}

func printJSON(ctx context.Context, v any) error {
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "%s\n", js)
	return nil
}
