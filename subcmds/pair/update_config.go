// Copyright (c) 2025 BVK Chaitanya

package pair

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bvk/ladderbot/api"
	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type UpdateConfig struct {
	cmdutil.ClientFlags
}

func (c *UpdateConfig) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("update-config", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "update-config", fset, cli.CmdFunc(c.run)
}

func (c *UpdateConfig) Purpose() string {
	return "Updates the configuration of a pair"
}

func (c *UpdateConfig) Description() string {
	return `

Command "update-config" changes one or more configuration fields of a pair.
Fields are named as in the configuration file. Running pairs pick up the
update at the start of their next cycle.

    $ ladderbot pair update-config BTCUSDT level-count=5 cycle-interval=1m

`
}

// parseUpdate converts key=value arguments into a configuration update.
func parseUpdate(args []string) (*config.Partial, error) {
	var sb strings.Builder
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || len(k) == 0 {
			return nil, fmt.Errorf("argument %q is not in key=value form: %w", arg, os.ErrInvalid)
		}
		fmt.Fprintf(&sb, "%s: %s\n", k, v)
	}
	return config.DecodePartial(strings.NewReader(sb.String()))
}

func (c *UpdateConfig) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("pair name and at least one key=value argument are required: %w", os.ErrInvalid)
	}
	partial, err := parseUpdate(args[1:])
	if err != nil {
		return err
	}

	req := &api.PairUpdateConfigRequest{Pair: args[0], Partial: partial}
	resp, err := cmdutil.Post[api.PairUpdateConfigResponse](ctx, &c.ClientFlags, api.PairUpdateConfigPath, req)
	if err != nil {
		return err
	}
	if resp.Pending {
		fmt.Fprintln(cli.Stdout(ctx), "update takes effect from the next cycle")
	}
	return printJSON(ctx, resp.Config)
}
