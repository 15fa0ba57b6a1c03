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

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) Purpose() string {
	return "Prints the status of a pair in JSON format"
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (pair name) argument: %w", os.ErrInvalid)
	}
	req := &api.PairStatusRequest{Pair: args[0]}
	resp, err := cmdutil.Post[api.PairStatusResponse](ctx, &c.ClientFlags, api.PairStatusPath, req)
	if err != nil {
		return err
	}
	return printJSON(ctx, resp.Status)
}
