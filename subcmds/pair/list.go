// Copyright (c) 2025 BVK Chaitanya

package pair

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.ClientFlags
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Lists all pairs known to the server"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments: %w", os.ErrInvalid)
	}
	resp, err := cmdutil.Post[api.PairListResponse](ctx, &c.ClientFlags, api.PairListPath, &api.PairListRequest{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "PAIR\tMODE\tVARIANT\tRUNNING\tORDERS\tCYCLES\tFAILED\n")
	for _, p := range resp.Pairs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\t%d\n", p.Pair, p.Mode, p.Variant, p.IsRunning, p.TrackedOrders, p.CycleCount, p.FailedCycles)
	}
	return tw.Flush()
}
