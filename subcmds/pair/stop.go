// Copyright (c) 2025 BVK Chaitanya

package pair

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Stop struct {
	cmdutil.ClientFlags
}

func (c *Stop) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("stop", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "stop", fset, cli.CmdFunc(c.run)
}

func (c *Stop) Purpose() string {
	return "Stops trading pairs"
}

func (c *Stop) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one pair name argument is required: %w", os.ErrInvalid)
	}
	stdout := cli.Stdout(ctx)
	for _, pair := range args {
		req := &api.PairStopRequest{Pair: pair}
		resp, err := cmdutil.Post[api.PairStopResponse](ctx, &c.ClientFlags, api.PairStopPath, req)
		if err != nil {
			return fmt.Errorf("could not stop pair %q: %w", pair, err)
		}
		fmt.Fprintf(stdout, "%s: running=%t orders=%d\n", resp.Status.Pair, resp.Status.IsRunning, len(resp.Status.TrackedOrders))
	}
	return nil
}
